package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Curve.MinFlow != 25 || cfg.Curve.MaxFlow != 55 {
		t.Fatalf("flow defaults: %+v", cfg.Curve)
	}
	if cfg.Curve.MinOutdoor != -10 || cfg.Curve.MaxOutdoor != 15 {
		t.Fatalf("outdoor defaults: %+v", cfg.Curve)
	}
	if cfg.Curve.PlateauStart != 10 || cfg.Curve.PlateauEnd != -5 || !cfg.Curve.UsePlateau {
		t.Fatalf("plateau defaults: %+v", cfg.Curve)
	}
	if cfg.Curve.DisplayScaleMin != 20 || cfg.Curve.DisplayScaleMax != 50 {
		t.Fatalf("scale defaults: %+v", cfg.Curve)
	}
	if cfg.Bindings.SensorSourceID != 0 || cfg.Bindings.ActuatorSinkID != 0 {
		t.Fatalf("bindings should default to unbound: %+v", cfg.Bindings)
	}
	if cfg.Port != "8080" || cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("unexpected defaults: port=%q ttl=%v", cfg.Port, cfg.Auth.TokenTTL)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yml := `
port: "9090"
curve:
  min_flow: 30
  max_flow: 50
  use_plateau: false
bindings:
  sensor_source_id: 11
  actuator_sink_id: 12
kafka:
  brokers: ["k1:9092", "k2:9092"]
`
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	l := NewLoader(dir)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port: got %q", cfg.Port)
	}
	if cfg.Curve.MinFlow != 30 || cfg.Curve.MaxFlow != 50 || cfg.Curve.UsePlateau {
		t.Fatalf("curve: %+v", cfg.Curve)
	}
	// untouched keys keep their defaults
	if cfg.Curve.MinOutdoor != -10 {
		t.Fatalf("min_outdoor default lost: %v", cfg.Curve.MinOutdoor)
	}
	if cfg.Bindings.SensorSourceID != 11 || cfg.Bindings.ActuatorSinkID != 12 {
		t.Fatalf("bindings: %+v", cfg.Bindings)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("kafka brokers: %v", cfg.Kafka.Brokers)
	}
	if l.ConfigFile() == "" {
		t.Fatalf("expected config file to be reported")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HEATING_CURVE_BINDINGS_ACTUATOR_SINK_ID", "42")
	cfg, err := NewLoader(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bindings.ActuatorSinkID != 42 {
		t.Fatalf("env override ignored: %+v", cfg.Bindings)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("curve: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := NewLoader(dir).Load(); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("bindings:\n  sensor_source_id: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	l := NewLoader(dir)
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	changed := make(chan Config, 4)
	l.Watch(func(c Config) { changed <- c }, func(err error) { t.Errorf("reload: %v", err) })

	if err := os.WriteFile(path, []byte("bindings:\n  sensor_source_id: 5\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Bindings.SensorSourceID == 5 {
				return
			}
		case <-deadline:
			t.Fatalf("no reload with new sensor id")
		}
	}
}
