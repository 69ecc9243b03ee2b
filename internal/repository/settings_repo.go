package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cputempwidget/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO widget_settings
			(id, threshold_c, poll_interval_s, position_x, position_y, position_locked,
			 always_on_top, transparency, text_size, widget_visible, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			threshold_c=excluded.threshold_c,
			poll_interval_s=excluded.poll_interval_s,
			position_x=excluded.position_x,
			position_y=excluded.position_y,
			position_locked=excluded.position_locked,
			always_on_top=excluded.always_on_top,
			transparency=excluded.transparency,
			text_size=excluded.text_size,
			widget_visible=excluded.widget_visible,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT id, threshold_c, poll_interval_s, position_x, position_y, position_locked,
		       always_on_top, transparency, text_size, widget_visible, updated_at
		FROM widget_settings WHERE id=?
	`
)

// Save upserts the single widget_settings row (id always 1).
func (r *SettingsSQLite) Save(ctx context.Context, s models.WidgetSettings) error {
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertSettingsSQL,
		settingsRowID,
		s.ThresholdC,
		s.PollIntervalSec,
		nullableInt(s.PositionX),
		nullableInt(s.PositionY),
		s.PositionLocked,
		s.AlwaysOnTop,
		s.Transparency,
		s.TextSize,
		s.WidgetVisible,
		tsUTC,
	)
	return err
}

// Load fetches the single widget_settings row. An empty table yields a zero
// struct (ID 0), which callers treat as "nothing persisted yet".
func (r *SettingsSQLite) Load(ctx context.Context) (models.WidgetSettings, error) {
	row := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID)

	var (
		s          models.WidgetSettings
		posX, posY sql.NullInt64
	)
	if err := row.Scan(
		&s.ID,
		&s.ThresholdC,
		&s.PollIntervalSec,
		&posX,
		&posY,
		&s.PositionLocked,
		&s.AlwaysOnTop,
		&s.Transparency,
		&s.TextSize,
		&s.WidgetVisible,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WidgetSettings{}, nil // no settings yet
		}
		return models.WidgetSettings{}, err
	}

	if posX.Valid {
		v := int(posX.Int64)
		s.PositionX = &v
	}
	if posY.Valid {
		v := int(posY.Int64)
		s.PositionY = &v
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
