package service

import (
	"errors"
	"fmt"

	"heating_curve/internal/config"
	"heating_curve/internal/models"
)

// ErrInvalidConfiguration wraps every rule reported by Validate. It never stops
// the engine; an invalid configuration only suppresses actuator writes.
var ErrInvalidConfiguration = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// Validate returns nil when the curve may drive the actuator, otherwise a
// joined error naming each violated rule.
func Validate(p models.CurveParameters, usePlateau bool, b config.Bindings) error {
	var errs []error
	if !(p.MinFlow < p.MaxFlow) {
		errs = append(errs, invalid("min flow %.1f must be below max flow %.1f", p.MinFlow, p.MaxFlow))
	}
	if !(p.MinOutdoor < p.MaxOutdoor) {
		errs = append(errs, invalid("min outdoor %.1f must be below max outdoor %.1f", p.MinOutdoor, p.MaxOutdoor))
	}
	if b.SensorSourceID <= 0 || b.ActuatorSinkID <= 0 {
		errs = append(errs, invalid("sensor and actuator variables must be bound (sensor=%d actuator=%d)", b.SensorSourceID, b.ActuatorSinkID))
	}
	if usePlateau && !(p.MinOutdoor <= p.PlateauEnd && p.PlateauEnd <= p.PlateauStart && p.PlateauStart <= p.MaxOutdoor) {
		errs = append(errs, invalid("plateau bounds require min outdoor <= end %.1f <= start %.1f <= max outdoor", p.PlateauEnd, p.PlateauStart))
	}
	return errors.Join(errs...)
}
