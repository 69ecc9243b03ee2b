package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cputempwidget/internal/models"
)

// ---- Test doubles ----

type settingsRepoStub struct {
	loadResp models.WidgetSettings
	loadErr  error
	saveErr  error
	saves    []models.WidgetSettings
}

func (s *settingsRepoStub) Save(ctx context.Context, st models.WidgetSettings) error {
	s.saves = append(s.saves, st)
	return s.saveErr
}

func (s *settingsRepoStub) Load(ctx context.Context) (models.WidgetSettings, error) {
	return s.loadResp, s.loadErr
}

// settingsMonitorStub records reconfigure calls.
type settingsMonitorStub struct {
	reconfigureErr   error
	reconfigureCalls []ReconfigureParams
}

func (m *settingsMonitorStub) Start(ctx context.Context) error { return nil }
func (m *settingsMonitorStub) Stop()                           {}
func (m *settingsMonitorStub) Snapshot() models.Snapshot       { return models.Snapshot{} }
func (m *settingsMonitorStub) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot)
	return ch, func() {}
}
func (m *settingsMonitorStub) Reconfigure(p ReconfigureParams) error {
	m.reconfigureCalls = append(m.reconfigureCalls, p)
	return m.reconfigureErr
}

// ---- Get ----

func TestSettingsService_Get(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name       string
		repoResp   models.WidgetSettings
		repoErr    error
		defaults   MonitorConfig
		assertFunc func(t *testing.T, got models.WidgetSettings, err error)
	}

	cases := []testCase{
		{
			name:    "propagates repository error",
			repoErr: errors.New("db down"),
			assertFunc: func(t *testing.T, got models.WidgetSettings, err error) {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if got.ID != 0 {
					t.Errorf("expected zero settings, got %+v", got)
				}
			},
		},
		{
			name:     "returns baseline when nothing persisted",
			repoResp: models.WidgetSettings{ID: 0},
			defaults: MonitorConfig{ThresholdC: 75, Interval: 2 * time.Second},
			assertFunc: func(t *testing.T, got models.WidgetSettings, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.ID != 1 {
					t.Errorf("baseline ID: want 1, got %d", got.ID)
				}
				if got.ThresholdC != 75 {
					t.Errorf("baseline threshold from defaults: want 75, got %v", got.ThresholdC)
				}
				if got.PollIntervalSec != 2 {
					t.Errorf("baseline interval from defaults: want 2, got %v", got.PollIntervalSec)
				}
				if got.Transparency != defaultTransparency {
					t.Errorf("baseline transparency: want %d, got %d", defaultTransparency, got.Transparency)
				}
				if got.TextSize != defaultTextSize {
					t.Errorf("baseline text size: want %q, got %q", defaultTextSize, got.TextSize)
				}
				if !got.AlwaysOnTop || !got.WidgetVisible {
					t.Errorf("baseline must be visible and on top, got %+v", got)
				}
				if got.PositionX != nil || got.PositionY != nil {
					t.Errorf("baseline position must be nil (centered), got %+v", got)
				}
				if got.UpdatedAt.IsZero() || got.UpdatedAt.Location() != time.UTC {
					t.Errorf("baseline UpdatedAt must be a UTC timestamp, got %v", got.UpdatedAt)
				}
			},
		},
		{
			name:     "baseline falls back to built-in defaults when config is zero",
			repoResp: models.WidgetSettings{ID: 0},
			assertFunc: func(t *testing.T, got models.WidgetSettings, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.ThresholdC != DefaultThresholdC {
					t.Errorf("threshold: want %v, got %v", DefaultThresholdC, got.ThresholdC)
				}
				if got.PollIntervalSec != DefaultInterval.Seconds() {
					t.Errorf("interval: want %v, got %v", DefaultInterval.Seconds(), got.PollIntervalSec)
				}
			},
		},
		{
			name: "normalizes persisted UpdatedAt to UTC",
			repoResp: models.WidgetSettings{
				ID:         1,
				ThresholdC: 65,
				UpdatedAt:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3*3600)),
			},
			assertFunc: func(t *testing.T, got models.WidgetSettings, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.UpdatedAt.Location() != time.UTC {
					t.Errorf("UpdatedAt must be UTC, got %v", got.UpdatedAt.Location())
				}
				if got.ThresholdC != 65 {
					t.Errorf("persisted threshold preserved: want 65, got %v", got.ThresholdC)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			svc := NewSettingsService(&settingsRepoStub{loadResp: tc.repoResp, loadErr: tc.repoErr}, &settingsMonitorStub{}, tc.defaults)
			got, err := svc.Get(ctx)
			tc.assertFunc(t, got, err)
		})
	}
}

// ---- Update ----

func TestSettingsService_Update_ClampsAndForwardsToMonitor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &settingsRepoStub{loadResp: models.WidgetSettings{
		ID:              1,
		ThresholdC:      70,
		PollIntervalSec: 1,
		Transparency:    60,
		TextSize:        "medium",
		WidgetVisible:   true,
	}}
	mon := &settingsMonitorStub{}
	svc := NewSettingsService(repo, mon, MonitorConfig{})

	threshold := 120.0 // above max, must clamp to 100
	interval := 0.01   // below min, must floor to 0.1s
	transparency := 10 // below min, must clamp to 30
	got, err := svc.Update(ctx, SettingsParams{
		ThresholdC:      &threshold,
		PollIntervalSec: &interval,
		Transparency:    &transparency,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ThresholdC != MaxThresholdC {
		t.Errorf("threshold clamp: want %v, got %v", MaxThresholdC, got.ThresholdC)
	}
	if got.PollIntervalSec != MinInterval.Seconds() {
		t.Errorf("interval floor: want %v, got %v", MinInterval.Seconds(), got.PollIntervalSec)
	}
	if got.Transparency != minTransparency {
		t.Errorf("transparency clamp: want %d, got %d", minTransparency, got.Transparency)
	}

	if len(repo.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(repo.saves))
	}
	saved := repo.saves[0]
	if saved.ID != 1 {
		t.Errorf("saved row ID: want 1, got %d", saved.ID)
	}
	if saved.UpdatedAt.IsZero() || saved.UpdatedAt.Location() != time.UTC {
		t.Errorf("saved UpdatedAt must be UTC now, got %v", saved.UpdatedAt)
	}

	if len(mon.reconfigureCalls) != 1 {
		t.Fatalf("expected one monitor reconfigure, got %d", len(mon.reconfigureCalls))
	}
	recfg := mon.reconfigureCalls[0]
	if recfg.ThresholdC == nil || *recfg.ThresholdC != MaxThresholdC {
		t.Errorf("reconfigure threshold: want %v, got %v", MaxThresholdC, recfg.ThresholdC)
	}
	if recfg.PollInterval == nil || *recfg.PollInterval != MinInterval {
		t.Errorf("reconfigure interval: want %v, got %v", MinInterval, recfg.PollInterval)
	}
}

func TestSettingsService_Update_PartialMergeKeepsUntouchedFields(t *testing.T) {
	t.Parallel()

	x, y := 100, 200
	repo := &settingsRepoStub{loadResp: models.WidgetSettings{
		ID:              1,
		ThresholdC:      70,
		PollIntervalSec: 1,
		PositionX:       &x,
		PositionY:       &y,
		Transparency:    60,
		TextSize:        "medium",
		AlwaysOnTop:     true,
		WidgetVisible:   true,
	}}
	mon := &settingsMonitorStub{}
	svc := NewSettingsService(repo, mon, MonitorConfig{})

	size := "large"
	got, err := svc.Update(context.Background(), SettingsParams{TextSize: &size})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.TextSize != "large" {
		t.Errorf("text size: want large, got %q", got.TextSize)
	}
	if got.ThresholdC != 70 || got.PollIntervalSec != 1 || got.Transparency != 60 {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if got.PositionX == nil || *got.PositionX != 100 || got.PositionY == nil || *got.PositionY != 200 {
		t.Errorf("position must be preserved, got %+v", got)
	}

	// No threshold/interval change: the forwarded reconfigure carries nothing.
	if len(mon.reconfigureCalls) != 1 {
		t.Fatalf("expected one reconfigure call, got %d", len(mon.reconfigureCalls))
	}
	if p := mon.reconfigureCalls[0]; p.ThresholdC != nil || p.PollInterval != nil {
		t.Errorf("reconfigure should carry no monitor changes, got %+v", p)
	}
}

func TestSettingsService_Update_ResetPositionClearsCoordinates(t *testing.T) {
	t.Parallel()

	x, y := 10, 20
	repo := &settingsRepoStub{loadResp: models.WidgetSettings{
		ID: 1, ThresholdC: 70, PollIntervalSec: 1, PositionX: &x, PositionY: &y,
		Transparency: 60, TextSize: "medium",
	}}
	svc := NewSettingsService(repo, &settingsMonitorStub{}, MonitorConfig{})

	nx := 500 // explicit coordinates lose against reset
	got, err := svc.Update(context.Background(), SettingsParams{ResetPosition: true, PositionX: &nx})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.PositionX != nil || got.PositionY != nil {
		t.Fatalf("reset_position must clear both coordinates, got %+v", got)
	}
}

func TestSettingsService_Update_RejectsInvalidTextSize(t *testing.T) {
	t.Parallel()

	repo := &settingsRepoStub{loadResp: models.WidgetSettings{ID: 1, ThresholdC: 70, PollIntervalSec: 1, TextSize: "medium", Transparency: 60}}
	svc := NewSettingsService(repo, &settingsMonitorStub{}, MonitorConfig{})

	size := "enormous"
	_, err := svc.Update(context.Background(), SettingsParams{TextSize: &size})
	if !errors.Is(err, errInvalidTextSize) {
		t.Fatalf("want errInvalidTextSize, got %v", err)
	}
	if len(repo.saves) != 0 {
		t.Errorf("invalid update must not be persisted")
	}
}

func TestSettingsService_Update_PropagatesErrors(t *testing.T) {
	t.Parallel()

	loaded := models.WidgetSettings{ID: 1, ThresholdC: 70, PollIntervalSec: 1, TextSize: "medium", Transparency: 60}

	t.Run("save error", func(t *testing.T) {
		t.Parallel()
		repo := &settingsRepoStub{loadResp: loaded, saveErr: errors.New("disk full")}
		svc := NewSettingsService(repo, &settingsMonitorStub{}, MonitorConfig{})
		if _, err := svc.Update(context.Background(), SettingsParams{AlwaysOnTop: ptrBool(true)}); err == nil {
			t.Fatalf("expected save error")
		}
	})

	t.Run("monitor reconfigure error", func(t *testing.T) {
		t.Parallel()
		mon := &settingsMonitorStub{reconfigureErr: ErrInvalidInterval}
		repo := &settingsRepoStub{loadResp: loaded}
		svc := NewSettingsService(repo, mon, MonitorConfig{})
		if _, err := svc.Update(context.Background(), SettingsParams{AlwaysOnTop: ptrBool(false)}); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("want monitor error, got %v", err)
		}
	})
}

func ptrBool(v bool) *bool { return &v }
