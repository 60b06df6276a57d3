// Package config loads the daemon configuration from configs/config.yml and the
// environment, and reports changes to the file while running.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "HEATING_CURVE"

// Curve holds the configured curve defaults and display bounds.
type Curve struct {
	MinFlow         float64 `mapstructure:"min_flow"`
	MaxFlow         float64 `mapstructure:"max_flow"`
	MinOutdoor      float64 `mapstructure:"min_outdoor"`
	MaxOutdoor      float64 `mapstructure:"max_outdoor"`
	PlateauStart    float64 `mapstructure:"plateau_start"`
	PlateauEnd      float64 `mapstructure:"plateau_end"`
	UsePlateau      bool    `mapstructure:"use_plateau"`
	DisplayScaleMin float64 `mapstructure:"display_scale_min"`
	DisplayScaleMax float64 `mapstructure:"display_scale_max"`
}

// Bindings names the sensor and actuator variables. Zero means unbound.
type Bindings struct {
	SensorSourceID int64 `mapstructure:"sensor_source_id"`
	ActuatorSinkID int64 `mapstructure:"actuator_sink_id"`
}

type Auth struct {
	Enabled    bool          `mapstructure:"enabled"`
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type MQTT struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Config is the full daemon configuration.
type Config struct {
	Port     string   `mapstructure:"port"`
	DBPath   string   `mapstructure:"db_path"`
	LogLevel string   `mapstructure:"log_level"`
	Curve    Curve    `mapstructure:"curve"`
	Bindings Bindings `mapstructure:"bindings"`
	Auth     Auth     `mapstructure:"auth"`
	MQTT     MQTT     `mapstructure:"mqtt"`
	Kafka    Kafka    `mapstructure:"kafka"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "heating_curve.db")
	v.SetDefault("log_level", "info")

	v.SetDefault("curve.min_flow", 25.0)
	v.SetDefault("curve.max_flow", 55.0)
	v.SetDefault("curve.min_outdoor", -10.0)
	v.SetDefault("curve.max_outdoor", 15.0)
	v.SetDefault("curve.plateau_start", 10.0)
	v.SetDefault("curve.plateau_end", -5.0)
	v.SetDefault("curve.use_plateau", true)
	v.SetDefault("curve.display_scale_min", 20.0)
	v.SetDefault("curve.display_scale_max", 50.0)

	v.SetDefault("bindings.sensor_source_id", 0)
	v.SetDefault("bindings.actuator_sink_id", 0)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "heating-curve")
	v.SetDefault("mqtt.topic_prefix", "heating")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "heating-curve-state")
}

// Loader reads and re-reads the configuration.
type Loader struct {
	v *viper.Viper
}

// NewLoader looks for config.yml in each of dirs. A missing file is not an
// error; defaults and environment variables apply.
func NewLoader(dirs ...string) *Loader {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &Loader{v: v}
}

// Viper exposes the underlying instance so commands can bind flags to it.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Load reads the config file (if any) and decodes the result.
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Watch calls onChange with the reloaded configuration every time the config
// file is written. Decode failures go to onError and the callback is skipped.
func (l *Loader) Watch(onChange func(Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// ConfigFile reports the file in use, or "" when running on defaults.
func (l *Loader) ConfigFile() string { return l.v.ConfigFileUsed() }
