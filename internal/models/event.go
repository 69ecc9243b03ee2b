package models

import "time"

// WidgetEvent is a single log entry.
type WidgetEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | HOT | HOT_CLEAR | SENSOR_FAULT | RECONFIGURE
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
