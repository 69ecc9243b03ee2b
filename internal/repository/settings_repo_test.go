package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"cputempwidget/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestSettingsSave_UpsertsSingleRow(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSettingsSQLite(db)

	x, y := 120, 340
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.FixedZone("X", 2*3600))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO widget_settings")).
		WithArgs(
			settingsRowID,
			72.5,
			0.5,
			120,
			340,
			true,
			true,
			45,
			"large",
			true,
			ts.UTC(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(testCtx(t), models.WidgetSettings{
		ID:              5, // ignored: the row id is always 1
		ThresholdC:      72.5,
		PollIntervalSec: 0.5,
		PositionX:       &x,
		PositionY:       &y,
		PositionLocked:  true,
		AlwaysOnTop:     true,
		Transparency:    45,
		TextSize:        "large",
		WidgetVisible:   true,
		UpdatedAt:       ts,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSettingsSave_NilPositionsAndDefaultTimestamp(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSettingsSQLite(db)

	// Nil coordinates go down as NULL; a zero UpdatedAt is filled with now.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO widget_settings")).
		WithArgs(
			settingsRowID,
			70.0,
			1.0,
			nil,
			nil,
			false,
			true,
			60,
			"medium",
			true,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(testCtx(t), models.WidgetSettings{
		ThresholdC:      70,
		PollIntervalSec: 1,
		AlwaysOnTop:     true,
		Transparency:    60,
		TextSize:        "medium",
		WidgetVisible:   true,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSettingsSave_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSettingsSQLite(db)

	mock.ExpectExec("INSERT INTO widget_settings").WillReturnError(errors.New("disk full"))

	err := repo.Save(testCtx(t), models.WidgetSettings{ThresholdC: 70})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestSettingsLoad_RowWithPositions(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSettingsSQLite(db)

	updated := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "threshold_c", "poll_interval_s", "position_x", "position_y", "position_locked",
		"always_on_top", "transparency", "text_size", "widget_visible", "updated_at",
	}).AddRow(1, 72.5, 0.5, 120, 340, true, true, 45, "large", true, updated)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, threshold_c, poll_interval_s")).
		WithArgs(settingsRowID).
		WillReturnRows(rows)

	s, err := repo.Load(testCtx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ID != 1 || s.ThresholdC != 72.5 || s.PollIntervalSec != 0.5 {
		t.Errorf("unexpected monitor fields: %+v", s)
	}
	if s.PositionX == nil || *s.PositionX != 120 || s.PositionY == nil || *s.PositionY != 340 {
		t.Errorf("positions not decoded: %+v", s)
	}
	if s.TextSize != "large" || s.Transparency != 45 {
		t.Errorf("chrome fields not decoded: %+v", s)
	}
	if !s.UpdatedAt.Equal(updated) || s.UpdatedAt.Location() != time.UTC {
		t.Errorf("updated_at: want %v UTC, got %v", updated, s.UpdatedAt)
	}
}

func TestSettingsLoad_NullPositions(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSettingsSQLite(db)

	rows := sqlmock.NewRows([]string{
		"id", "threshold_c", "poll_interval_s", "position_x", "position_y", "position_locked",
		"always_on_top", "transparency", "text_size", "widget_visible", "updated_at",
	}).AddRow(1, 70.0, 1.0, nil, nil, false, true, 60, "medium", true, time.Now().UTC())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, threshold_c, poll_interval_s")).
		WithArgs(settingsRowID).
		WillReturnRows(rows)

	s, err := repo.Load(testCtx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.PositionX != nil || s.PositionY != nil {
		t.Fatalf("NULL positions must decode to nil pointers, got %+v", s)
	}
}

func TestSettingsLoad_EmptyTableYieldsZeroStruct(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSettingsSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, threshold_c, poll_interval_s")).
		WithArgs(settingsRowID).
		WillReturnError(sql.ErrNoRows)

	s, err := repo.Load(testCtx(t))
	if err != nil {
		t.Fatalf("Load on empty table must not fail: %v", err)
	}
	if s.ID != 0 {
		t.Fatalf("want zero struct for empty table, got %+v", s)
	}
}

func TestSettingsLoad_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSettingsSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, threshold_c, poll_interval_s")).
		WithArgs(settingsRowID).
		WillReturnError(errors.New("db down"))

	if _, err := repo.Load(testCtx(t)); err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected db error, got %v", err)
	}
}
