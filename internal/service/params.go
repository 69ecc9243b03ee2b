package service

import "time"

// ReconfigureParams carries an atomic runtime change to the monitor.
// Nil fields are left untouched.
type ReconfigureParams struct {
	ThresholdC   *float64
	PollInterval *time.Duration
}

// SettingsParams is a partial update of the persisted widget settings.
// Nil fields are left untouched.
type SettingsParams struct {
	ThresholdC      *float64
	PollIntervalSec *float64
	PositionX       *int
	PositionY       *int
	ResetPosition   bool // clears both coordinates back to "center of screen"
	PositionLocked  *bool
	AlwaysOnTop     *bool
	Transparency    *int
	TextSize        *string
	WidgetVisible   *bool
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STOP", "HOT", "HOT_CLEAR", "SENSOR_FAULT", "RECONFIGURE"
}
