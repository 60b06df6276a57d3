package service

import (
	"context"
	"math"

	"heating_curve/internal/logger"
	"heating_curve/internal/models"
)

// writeTolerance is the distance below which a stored value counts as equal
// to the target.
const writeTolerance = 0.001

// ActuatorSink is the variable the flow target is written to.
type ActuatorSink interface {
	// Capabilities fails when id does not resolve to a variable.
	Capabilities(ctx context.Context, id int64) (models.Capabilities, error)
	Read(ctx context.Context, id int64) (float64, error)
	Write(ctx context.Context, id int64, value float64) error
	RunAction(ctx context.Context, id, actionID int64, value float64) error
}

// Outcome classifies what WriteIfChanged did.
type Outcome string

const (
	OutcomeMissing        Outcome = "missing"
	OutcomeUnchanged      Outcome = "unchanged"
	OutcomeActionVerified Outcome = "action_verified"
	OutcomeDirectWrite    Outcome = "direct_write"
	OutcomeFailed         Outcome = "failed"
)

// WriteResult reports one WriteIfChanged call. Err is set for OutcomeMissing
// and OutcomeFailed.
type WriteResult struct {
	Outcome  Outcome
	Previous *float64
	Target   float64
	ActionID int64
	Err      error
}

// ActuatorWriter keeps an actuator variable equal to a target value. It
// prefers the variable's action, verifies it by reading back, and falls back
// to writing the value directly.
type ActuatorWriter struct {
	sink ActuatorSink
	log  *logger.Logger
}

func NewActuatorWriter(sink ActuatorSink, log *logger.Logger) *ActuatorWriter {
	if log == nil {
		log = logger.Nop()
	}
	return &ActuatorWriter{sink: sink, log: log}
}

// WriteIfChanged never fails the caller; problems are reported in the result.
func (w *ActuatorWriter) WriteIfChanged(ctx context.Context, id int64, target float64) WriteResult {
	res := WriteResult{Target: target}

	caps, err := w.sink.Capabilities(ctx, id)
	if err != nil {
		w.log.Warnw("actuator_unresolved", "var_id", id, "err", err)
		res.Outcome, res.Err = OutcomeMissing, err
		return res
	}

	diff := math.MaxFloat64
	if cur, err := w.sink.Read(ctx, id); err == nil && !math.IsNaN(cur) {
		res.Previous = &cur
		diff = math.Abs(cur - target)
	} else {
		w.log.Debugw("actuator_no_current_value", "var_id", id, "err", err)
	}
	w.log.Debugw("actuator_compare", "var_id", id, "target", target, "diff", diff)
	if diff <= writeTolerance {
		res.Outcome = OutcomeUnchanged
		return res
	}

	if caps.HasAction() {
		res.ActionID = caps.ActionID
		if w.runActionVerified(ctx, id, caps.ActionID, target) {
			res.Outcome = OutcomeActionVerified
			return res
		}
	} else {
		w.log.Debugw("actuator_no_action", "var_id", id)
	}

	if err := w.sink.Write(ctx, id, target); err != nil {
		w.log.Errorw("actuator_write_failed", "var_id", id, "target", target, "err", err)
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	w.log.Infow("actuator_write_direct", "var_id", id, "target", target)
	res.Outcome = OutcomeDirectWrite
	return res
}

func (w *ActuatorWriter) runActionVerified(ctx context.Context, id, actionID int64, target float64) bool {
	if err := w.sink.RunAction(ctx, id, actionID, target); err != nil {
		w.log.Warnw("actuator_action_failed", "var_id", id, "action_id", actionID, "err", err)
	}
	after, err := w.sink.Read(ctx, id)
	if err == nil && math.Abs(after-target) <= writeTolerance {
		w.log.Infow("actuator_action_verified", "var_id", id, "action_id", actionID, "target", target)
		return true
	}
	w.log.Infow("actuator_action_not_applied", "var_id", id, "action_id", actionID, "target", target)
	return false
}
