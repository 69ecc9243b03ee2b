package models

import "time"

// Snapshot is an immutable copy of the monitor state handed to consumers.
// The presentation layer derives all coloring from Warning and Hot; it never
// computes temperature logic itself.
type Snapshot struct {
	Sample         Sample    `json:"sample"`
	ThresholdC     float64   `json:"threshold_c"`
	IntervalSec    float64   `json:"interval_s"`
	HighForSeconds float64   `json:"high_for_s"` // contiguous time the sample has been >= threshold
	Warning        bool      `json:"warning"`    // latest valid sample >= threshold
	Hot            bool      `json:"hot"`        // warning sustained for the dwell time
	Running        bool      `json:"running"`
	UpdatedAt      time.Time `json:"updated_at"`
}
