package service

import (
	"context"
	"time"

	"cputempwidget/internal/logger"
	"cputempwidget/internal/models"
	"cputempwidget/internal/repository"
	"cputempwidget/internal/sensor"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitor owns the polling cycle and the only mutable monitor state.
// Stop is idempotent and blocks until the loop has exited.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
	Reconfigure(p ReconfigureParams) error
	Snapshot() models.Snapshot
	Subscribe() (<-chan models.Snapshot, func())
}

// Settings is the configuration store: persisted widget settings, with
// threshold/interval changes forwarded to the monitor.
type Settings interface {
	Get(ctx context.Context) (models.WidgetSettings, error)
	Update(ctx context.Context, p SettingsParams) (models.WidgetSettings, error)
}

// EventLog exposes the append-only event history with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.WidgetEvent, error)
}

type Service struct {
	Monitor
	Settings
	EventLog
	Authorization
}

// AuthConfig holds token parameters sourced from the config file.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// NewService wires the repositories and the sensor reader into the concrete
// services. cfg carries the effective monitor configuration (file defaults
// overridden by persisted settings, resolved by the caller).
func NewService(repos *repository.Repository, reader sensor.Reader, log *logger.Logger, cfg MonitorConfig, auth AuthConfig) *Service {
	mon := NewMonitorService(reader, repos.EventRepo, log, cfg)
	return &Service{
		Monitor:       mon,
		Settings:      NewSettingsService(repos.SettingsRepo, mon, cfg),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, auth),
	}
}
