package service

import (
	"errors"
	"testing"

	"heating_curve/internal/config"
	"heating_curve/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	bound := config.Bindings{SensorSourceID: 1, ActuatorSinkID: 2}

	tests := []struct {
		name       string
		mutate     func(p *models.CurveParameters)
		usePlateau bool
		bindings   config.Bindings
		wantErrs   int
	}{
		{name: "defaults with bindings", bindings: bound},
		{name: "defaults with plateau", usePlateau: true, bindings: bound},
		{name: "unbound sensor", bindings: config.Bindings{ActuatorSinkID: 2}, wantErrs: 1},
		{name: "unbound actuator", bindings: config.Bindings{SensorSourceID: 1}, wantErrs: 1},
		{
			name:     "equal flow bounds",
			mutate:   func(p *models.CurveParameters) { p.MinFlow = p.MaxFlow },
			bindings: bound, wantErrs: 1,
		},
		{
			name:     "reversed outdoor bounds and unbound",
			mutate:   func(p *models.CurveParameters) { p.MinOutdoor, p.MaxOutdoor = p.MaxOutdoor, p.MinOutdoor },
			wantErrs: 2,
		},
		{
			name:       "reversed plateau is checked only in plateau mode",
			mutate:     func(p *models.CurveParameters) { p.PlateauStart, p.PlateauEnd = p.PlateauEnd, p.PlateauStart },
			usePlateau: false, bindings: bound,
		},
		{
			name:       "reversed plateau in plateau mode",
			mutate:     func(p *models.CurveParameters) { p.PlateauStart, p.PlateauEnd = p.PlateauEnd, p.PlateauStart },
			usePlateau: true, bindings: bound, wantErrs: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultParams()
			if tc.mutate != nil {
				tc.mutate(&p)
			}
			err := Validate(p, tc.usePlateau, tc.bindings)
			if tc.wantErrs == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			var joined interface{ Unwrap() []error }
			if assert.True(t, errors.As(err, &joined)) {
				assert.Len(t, joined.Unwrap(), tc.wantErrs)
			}
		})
	}
}
