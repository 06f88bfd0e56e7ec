package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/berfenger/solardash/internal/config"
	"github.com/berfenger/solardash/internal/core/actor"
	"github.com/berfenger/solardash/internal/core/domain"
	"github.com/berfenger/solardash/internal/core/port"
	"github.com/berfenger/solardash/internal/metrics"
	"github.com/berfenger/solardash/internal/mqtt"
	"github.com/berfenger/solardash/internal/server"
	"github.com/berfenger/solardash/internal/util/actorutil"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsRenderer := metrics.NewRenderer(registry)

	eventStream := &eventstream.EventStream{}
	transportFactory := mqtt.NewTransportFactory(cfg.MQTT, logger)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, transportFactory, eventStream, []port.Renderer{metricsRenderer}, logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid, eventStream, metricsRenderer.Handler(), logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	// close the broker connection before stopping the actors
	if _, err := ctx.RequestFuture(pid, domain.DisconnectRequest{}, 2*time.Second).Result(); err != nil {
		logger.Warn("disconnect on shutdown failed", zap.Error(err))
	}
	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => SOLARDASH_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SOLARDASH_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("solardash")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check bounds
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 9001)
	viper.SetDefault("mqtt.path", "/mqtt")
	viper.SetDefault("mqtt.secure", false)
	viper.SetDefault("mqtt.base_topic", "solar")
	viper.SetDefault("mqtt.client_id_prefix", "solar_dashboard")
	viper.SetDefault("mqtt.keepalive_seconds", 30)
	viper.SetDefault("mqtt.connect_timeout_millis", 10000)
	viper.SetDefault("mqtt.protocol_version", 4)
	viper.SetDefault("onboarding.auto_start", true)
	viper.SetDefault("onboarding.start_delay_millis", 1000)
	viper.SetDefault("onboarding.connect_timeout_millis", 15000)
	viper.SetDefault("onboarding.subscribing_delay_millis", 500)
	viper.SetDefault("onboarding.completeness_grace_millis", 3000)
	viper.SetDefault("onboarding.retry_delay_millis", 2000)
	viper.SetDefault("dashboard.pv_history_size", 20)
	viper.SetDefault("dashboard.lightning_interval_millis", 15000)
	viper.SetDefault("demo.enable", false)
	viper.SetDefault("demo.start_delay_millis", 3000)
	viper.SetDefault("demo.interval_millis", 2000)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
