package models

import "time"

// WidgetSettings is the persisted user configuration. ThresholdC and
// PollIntervalSec feed the monitor; everything else is owned by the widget UI
// and only stored here.
type WidgetSettings struct {
	ID              int       `json:"id"`
	ThresholdC      float64   `json:"threshold_c"`
	PollIntervalSec float64   `json:"poll_interval_s"`
	PositionX       *int      `json:"position_x,omitempty"` // nil means center of primary screen
	PositionY       *int      `json:"position_y,omitempty"`
	PositionLocked  bool      `json:"position_locked"`
	AlwaysOnTop     bool      `json:"always_on_top"`
	Transparency    int       `json:"transparency"` // percent, 30-90
	TextSize        string    `json:"text_size"`    // small | medium | large
	WidgetVisible   bool      `json:"widget_visible"`
	UpdatedAt       time.Time `json:"updated_at"`
}
