package models

import "time"

// Fault reasons for an invalid Sample.
const (
	FaultUnavailable      = "UNAVAILABLE"       // no backend present
	FaultPermissionDenied = "PERMISSION_DENIED" // backend present but inaccessible
	FaultNoSensor         = "NO_SENSOR"         // no CPU temperature sensor exposed
	FaultBackendError     = "BACKEND_ERROR"     // backend call failed or timed out
	FaultImplausible      = "IMPLAUSIBLE"       // value outside physically sane bounds
)

// Sample is the result of a single sensor read attempt. Immutable once produced.
type Sample struct {
	ValueC    float64   `json:"value_c"`
	Valid     bool      `json:"valid"`
	Reason    string    `json:"reason,omitempty"` // set when Valid=false
	Source    string    `json:"source"`           // e.g. "hwmon", "lhm-wmi", "simulated"
	Simulated bool      `json:"simulated"`
	TakenAt   time.Time `json:"taken_at"`
}
