package service

import (
	"context"
	"errors"
	"time"

	"cputempwidget/internal/models"
	"cputempwidget/internal/repository"
)

// Settings validation bounds. The widget-chrome fields (transparency, text
// size, position) are stored and served but never interpreted here.
const (
	minTransparency = 30
	maxTransparency = 90

	defaultTransparency = 60
	defaultTextSize     = "medium"
)

var errInvalidTextSize = errors.New("text_size must be one of: small, medium, large")

type SettingsService struct {
	repo     repository.SettingsRepo
	monitor  Monitor
	defaults MonitorConfig
}

func NewSettingsService(repo repository.SettingsRepo, monitor Monitor, defaults MonitorConfig) *SettingsService {
	return &SettingsService{repo: repo, monitor: monitor, defaults: defaults}
}

// Get returns the persisted settings, or a baseline built from the config
// defaults when nothing has been persisted yet.
func (s *SettingsService) Get(ctx context.Context) (models.WidgetSettings, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return models.WidgetSettings{}, err
	}
	if st.ID == 0 {
		return s.baseline(), nil
	}
	st.UpdatedAt = toUTC(st.UpdatedAt)
	return st, nil
}

// Update merges the partial change onto the current settings, persists it,
// and forwards threshold/interval to the monitor. The monitor reconfigure is
// the only path by which these values reach the polling loop.
func (s *SettingsService) Update(ctx context.Context, p SettingsParams) (models.WidgetSettings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return models.WidgetSettings{}, err
	}

	recfg := ReconfigureParams{}
	if p.ThresholdC != nil {
		st.ThresholdC = clampFloat(*p.ThresholdC, MinThresholdC, MaxThresholdC)
		recfg.ThresholdC = &st.ThresholdC
	}
	if p.PollIntervalSec != nil {
		iv := time.Duration(*p.PollIntervalSec * float64(time.Second))
		if iv < MinInterval {
			iv = MinInterval
		}
		st.PollIntervalSec = iv.Seconds()
		recfg.PollInterval = &iv
	}
	if p.ResetPosition {
		st.PositionX = nil
		st.PositionY = nil
	} else {
		if p.PositionX != nil {
			st.PositionX = p.PositionX
		}
		if p.PositionY != nil {
			st.PositionY = p.PositionY
		}
	}
	if p.PositionLocked != nil {
		st.PositionLocked = *p.PositionLocked
	}
	if p.AlwaysOnTop != nil {
		st.AlwaysOnTop = *p.AlwaysOnTop
	}
	if p.Transparency != nil {
		st.Transparency = clampInt(*p.Transparency, minTransparency, maxTransparency)
	}
	if p.TextSize != nil {
		switch *p.TextSize {
		case "small", "medium", "large":
			st.TextSize = *p.TextSize
		default:
			return models.WidgetSettings{}, errInvalidTextSize
		}
	}
	if p.WidgetVisible != nil {
		st.WidgetVisible = *p.WidgetVisible
	}
	st.ID = 1
	st.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, st); err != nil {
		return models.WidgetSettings{}, err
	}
	if err := s.monitor.Reconfigure(recfg); err != nil {
		return models.WidgetSettings{}, err
	}
	return st, nil
}

// baseline is the settings row for a fresh install: monitor defaults from
// the config file, widget chrome at its documented defaults.
func (s *SettingsService) baseline() models.WidgetSettings {
	threshold := s.defaults.ThresholdC
	if threshold == 0 {
		threshold = DefaultThresholdC
	}
	interval := s.defaults.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	return models.WidgetSettings{
		ID:              1, // schema enforces a single settings row with id=1
		ThresholdC:      threshold,
		PollIntervalSec: interval.Seconds(),
		PositionLocked:  false,
		AlwaysOnTop:     true,
		Transparency:    defaultTransparency,
		TextSize:        defaultTextSize,
		WidgetVisible:   true,
		UpdatedAt:       time.Now().UTC(),
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
