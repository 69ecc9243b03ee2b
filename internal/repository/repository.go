package repository

import (
	"context"
	"database/sql"
	"time"

	"cputempwidget/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type SettingsRepo interface {
	Save(ctx context.Context, s models.WidgetSettings) error
	Load(ctx context.Context) (models.WidgetSettings, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.WidgetEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.WidgetEvent, error)
}

type Repository struct {
	SettingsRepo SettingsRepo
	EventRepo    EventRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SettingsRepo: NewSettingsSQLite(db),
		EventRepo:    NewEventSQLite(db),
		Auth:         NewUserRepository(db),
	}
}
