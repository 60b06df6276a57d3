package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_LinearMidpoint(t *testing.T) {
	assert.Equal(t, 40.0, Evaluate(2.5, 30, 50, -10, 15, nil))
}

func TestEvaluate_LinearEndpoints(t *testing.T) {
	assert.Equal(t, 30.0, Evaluate(15, 30, 50, -10, 15, nil))
	assert.Equal(t, 50.0, Evaluate(-10, 30, 50, -10, 15, nil))
}

func TestEvaluate_DegenerateOutdoorSpan(t *testing.T) {
	assert.Equal(t, 25.0, Evaluate(3, 25, 55, 5, 5, nil))
	assert.Equal(t, 25.0, Evaluate(3, 25, 55, 5, 5, &Plateau{Start: 10, End: -5}))
}

func TestEvaluate_PlateauBoundariesInclusive(t *testing.T) {
	p := &Plateau{Start: 10, End: -5}
	assert.Equal(t, 25.0, Evaluate(10, 25, 55, -10, 15, p))
	assert.Equal(t, 55.0, Evaluate(-5, 25, 55, -10, 15, p))
	assert.Equal(t, 25.0, Evaluate(12, 25, 55, -10, 15, p))
	assert.Equal(t, 55.0, Evaluate(-8, 25, 55, -10, 15, p))
}

func TestEvaluate_PlateauInterpolation(t *testing.T) {
	// halfway between -5 and 10
	assert.Equal(t, 40.0, Evaluate(2.5, 25, 55, -10, 15, &Plateau{Start: 10, End: -5}))
}

func TestEvaluate_PlateauSwappedBreakpoints(t *testing.T) {
	ordered := Evaluate(0, 25, 55, -10, 15, &Plateau{Start: 10, End: -5})
	swapped := Evaluate(0, 25, 55, -10, 15, &Plateau{Start: -5, End: 10})
	assert.Equal(t, ordered, swapped)
}

func TestEvaluate_Rounding(t *testing.T) {
	// 30 + (15-5)/25*20 = 38 exactly; 30 + (15-4)/25*20 = 38.8 -> 39
	assert.Equal(t, 38.0, Evaluate(5, 30, 50, -10, 15, nil))
	assert.Equal(t, 39.0, Evaluate(4, 30, 50, -10, 15, nil))
}

func TestEvaluate_BoundedAndMonotonic(t *testing.T) {
	plateaus := []*Plateau{nil, {Start: 10, End: -5}, {Start: 15, End: -10}, {Start: 0, End: 0}}
	for _, p := range plateaus {
		prev := Evaluate(-60, 25, 55, -10, 15, p)
		for at := -60.0; at <= 60; at += 0.25 {
			got := Evaluate(at, 25, 55, -10, 15, p)
			assert.GreaterOrEqual(t, got, 25.0, "at=%v plateau=%v", at, p)
			assert.LessOrEqual(t, got, 55.0, "at=%v plateau=%v", at, p)
			assert.LessOrEqual(t, got, prev, "not monotonic at=%v plateau=%v", at, p)
			prev = got
		}
	}
}
