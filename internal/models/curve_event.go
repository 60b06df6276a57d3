package models

import "time"

// Curve event types.
const (
	EventConfigApplied   = "CONFIG_APPLIED"
	EventParamAdjusted   = "PARAM_ADJUSTED"
	EventActionVerified  = "ACTION_VERIFIED"
	EventDirectWrite     = "DIRECT_WRITE"
	EventWriteFailed     = "WRITE_FAILED"
	EventActuatorMissing = "ACTUATOR_MISSING"
)

// CurveEvent is a single entry of the engine's audit log.
type CurveEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
