package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heating_curve/internal/bus"
	"heating_curve/internal/config"
	"heating_curve/internal/handlers"
	"heating_curve/internal/logger"
	"heating_curve/internal/repository"
	"heating_curve/internal/repository/db"
	"heating_curve/internal/server"
	"heating_curve/internal/service"
	"heating_curve/internal/variables"

	_ "heating_curve/docs"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the curve engine with its HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	loader := newLoader()
	if err := loader.Viper().BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	log.Infow("config_loaded", "file", loader.ConfigFile(), "port", cfg.Port)

	conn, err := openDB(cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(conn)
	store := variables.NewStore(repos.Variables, nil)

	ctrl := service.NewController(service.ControllerDeps{
		Sensor:   store,
		Notifier: store,
		Actuator: store,
		Events:   repos.EventRepo,
		Log:      log.Named("curve"),
	})
	hub := handlers.NewHub(log.Named("ws"))
	ctrl.AddPublisher(hub)

	closeBus := wireBus(cfg, store, ctrl, log)
	defer closeBus()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctrl.ApplyConfig(ctx, cfg.Curve, cfg.Bindings)
	loader.Watch(func(next config.Config) {
		log.Infow("config_changed", "file", loader.ConfigFile())
		ctrl.ApplyConfig(context.Background(), next.Curve, next.Bindings)
	}, func(err error) {
		log.Errorw("config_reload_failed", "err", err)
	})

	services := service.NewService(repos, ctrl, store, cfg.Auth)
	apiHandler := handlers.NewHandler(services, hub, log.Named("http"), cfg.Auth.Enabled)
	srv := server.New(cfg.Port, apiHandler.InitRoutes())

	go func() {
		log.Infow("http_listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(ctrl, srv, log)
	return nil
}

// openDB initializes the SQLite database.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db_path not set in config; using default file", "default", "heating_curve.db")
		path = "heating_curve.db"
	}
	return db.InitDB(path)
}

// wireBus attaches the optional MQTT and Kafka transports and returns their
// combined close function.
func wireBus(cfg config.Config, store *variables.Store, ctrl *service.Controller, log *logger.Logger) func() {
	var closers []func()

	if cfg.MQTT.Broker != "" {
		m, err := bus.DialMQTT(cfg.MQTT, log.Named("mqtt"))
		if err != nil {
			log.Errorw("mqtt_disabled", "broker", cfg.MQTT.Broker, "err", err)
		} else {
			store.SetActionRunner(m)
			ctrl.AddPublisher(m)
			if err := m.SubscribeReadings(store); err != nil {
				log.Errorw("mqtt_subscribe_failed", "err", err)
			}
			closers = append(closers, m.Close)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		k, err := bus.NewKafkaPublisher(cfg.Kafka, log.Named("kafka"))
		if err != nil {
			log.Errorw("kafka_disabled", "err", err)
		} else {
			ctrl.AddPublisher(k)
			closers = append(closers, func() {
				if err := k.Close(); err != nil {
					log.Warnw("kafka_close_failed", "err", err)
				}
			})
		}
	}

	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(ctrl *service.Controller, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop reacting to sensor changes before the transports go away
	ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
