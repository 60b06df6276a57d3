package models

import "time"

// Variable is a numeric value held by the variable storage. Sensors and actuators
// are both variables; a nil Value means no reading has been stored yet.
type Variable struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Value        *float64  `json:"value"`
	CustomAction int64     `json:"custom_action,omitempty"` // takes priority over Action
	Action       int64     `json:"action,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Capabilities is resolved once per write and tells the writer whether a
// higher-level action should be tried before writing the value directly.
type Capabilities struct {
	ActionID int64 // 0 when no usable action target exists
}

// HasAction reports whether an action target is available.
func (c Capabilities) HasAction() bool { return c.ActionID > 0 }

// ActionID picks the custom action over the default one.
func (v Variable) ActionID() int64 {
	if v.CustomAction > 0 {
		return v.CustomAction
	}
	return v.Action
}
