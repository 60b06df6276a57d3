package service

import "time"

// LogFilter selects curve events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "CONFIG_APPLIED", "PARAM_ADJUSTED", "ACTION_VERIFIED", "DIRECT_WRITE", "WRITE_FAILED", "ACTUATOR_MISSING"
}
