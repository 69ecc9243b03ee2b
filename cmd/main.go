package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cputempwidget/internal/handlers"
	"cputempwidget/internal/logger"
	"cputempwidget/internal/repository"
	repodb "cputempwidget/internal/repository/db"
	"cputempwidget/internal/sensor"
	"cputempwidget/internal/server"
	"cputempwidget/internal/service"

	"github.com/spf13/viper"
)

// @title        CPU Temperature Widget API
// @version      1.0
// @description  Local daemon backing the desktop CPU temperature widget: polls the sensor, tracks the sustained-high state, and streams snapshots to the UI.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Config first: the logger singleton is created once, with the configured level.
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monCfg, err := resolveMonitorConfig(ctx, repos)
	if err != nil {
		log.Fatalw("failed to load persisted settings", "err", err)
	}

	reader := sensor.New(ctx, log)

	services := service.NewService(repos, reader, log, monCfg, service.AuthConfig{
		SigningKey: viper.GetString("auth.signing_key"),
		TokenTTL:   viper.GetDuration("auth.token_ttl"),
	})
	apiHandler := handlers.NewHandler(services, log)

	if err := services.Monitor.Start(ctx); err != nil {
		log.Fatalw("failed to start monitor", "err", err)
	}

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(cancel, srv, services, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetDefault("port", "8089")
	viper.SetDefault("db.path", "widget.db")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("monitor.threshold_c", service.DefaultThresholdC)
	viper.SetDefault("monitor.poll_interval", service.DefaultInterval)
	viper.SetDefault("monitor.hot_dwell", service.DefaultDwell)
	viper.SetDefault("auth.token_ttl", time.Hour)

	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "widget.db")
		dbPath = "widget.db"
	}
	return repodb.InitDB(dbPath)
}

// resolveMonitorConfig merges file defaults with the persisted settings row:
// persisted threshold/interval win when present.
func resolveMonitorConfig(ctx context.Context, repos *repository.Repository) (service.MonitorConfig, error) {
	cfg := service.MonitorConfig{
		ThresholdC: viper.GetFloat64("monitor.threshold_c"),
		Interval:   viper.GetDuration("monitor.poll_interval"),
		Dwell:      viper.GetDuration("monitor.hot_dwell"),
	}

	persisted, err := repos.SettingsRepo.Load(ctx)
	if err != nil {
		return service.MonitorConfig{}, err
	}
	if persisted.ID != 0 {
		cfg.ThresholdC = persisted.ThresholdC
		cfg.Interval = time.Duration(persisted.PollIntervalSec * float64(time.Second))
	}
	return cfg, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// Stop the polling loop first so the reader session is released.
	cancel()
	services.Monitor.Stop()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
