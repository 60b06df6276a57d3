// Package curve maps an outdoor temperature to a heating flow temperature.
package curve

import "math"

// Plateau holds the two breakpoints of a plateau-aware curve.
// At or above Start the curve stays at its minimum flow, at or below End it
// stays at its maximum flow.
type Plateau struct {
	Start float64
	End   float64
}

// Evaluate returns the flow target for outdoor, clamped to [minFlow, maxFlow]
// and rounded to whole degrees. A nil plateau selects the plain linear curve
// between (maxOutdoor, minFlow) and (minOutdoor, maxFlow).
func Evaluate(outdoor, minFlow, maxFlow, minOutdoor, maxOutdoor float64, plateau *Plateau) float64 {
	if minOutdoor == maxOutdoor {
		return minFlow
	}

	var flow float64
	if plateau != nil {
		start, end := plateau.Start, plateau.End
		if end > start {
			start, end = end, start
		}
		switch {
		case outdoor >= start:
			flow = minFlow
		case outdoor <= end:
			flow = maxFlow
		default:
			t := (outdoor - end) / (start - end)
			flow = maxFlow + t*(minFlow-maxFlow)
		}
	} else {
		ratio := (outdoor - maxOutdoor) / (minOutdoor - maxOutdoor)
		flow = minFlow + ratio*(maxFlow-minFlow)
	}

	return math.Round(clamp(flow, minFlow, maxFlow))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
