package service

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"heating_curve/internal/config"
	"heating_curve/internal/models"
)

// ErrInvalidArgument is returned for unknown identifiers and malformed filters.
var ErrInvalidArgument = errors.New("invalid argument")

// Boundary names one adjustable curve parameter. The values are the
// identifiers the tile UI sends.
type Boundary string

const (
	MinFlow      Boundary = "MinVL"
	MaxFlow      Boundary = "MaxVL"
	MinOutdoor   Boundary = "MinAT"
	MaxOutdoor   Boundary = "MaxAT"
	PlateauStart Boundary = "StartAT"
	PlateauEnd   Boundary = "EndAT"
)

// IdentInit is the handshake identifier; it carries no boundary.
const IdentInit = "Init"

// ParametersFromConfig returns the configured curve defaults.
func ParametersFromConfig(c config.Curve) models.CurveParameters {
	return models.CurveParameters{
		MinFlow:      c.MinFlow,
		MaxFlow:      c.MaxFlow,
		MinOutdoor:   c.MinOutdoor,
		MaxOutdoor:   c.MaxOutdoor,
		PlateauStart: c.PlateauStart,
		PlateauEnd:   c.PlateauEnd,
	}
}

// ParameterStore holds the runtime curve parameters. They start from the
// configured defaults and are nudged by UI requests; ApplyDelta always leaves
// them ordered.
type ParameterStore struct {
	mu sync.RWMutex
	p  models.CurveParameters
}

func NewParameterStore(defaults models.CurveParameters) *ParameterStore {
	return &ParameterStore{p: defaults}
}

// Reset discards every UI adjustment and reloads defaults as given.
func (s *ParameterStore) Reset(defaults models.CurveParameters) {
	s.mu.Lock()
	s.p = defaults
	s.mu.Unlock()
}

func (s *ParameterStore) Snapshot() models.CurveParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// ApplyDelta moves one boundary to round(current+delta) and repairs the
// ordering. When two bounds collide the one just edited wins and the other
// bound is pushed away from it.
func (s *ParameterStore) ApplyDelta(name Boundary, delta float64) (models.CurveParameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.p
	field, err := boundaryField(&p, name)
	if err != nil {
		return s.p, err
	}
	*field = math.Round(*field + delta)

	if p.MinFlow >= p.MaxFlow {
		if name == MinFlow {
			p.MaxFlow = p.MinFlow + 1
		} else {
			p.MinFlow = p.MaxFlow - 1
		}
	}
	if p.MinOutdoor >= p.MaxOutdoor {
		if name == MinOutdoor {
			p.MaxOutdoor = p.MinOutdoor + 1
		} else {
			p.MinOutdoor = p.MaxOutdoor - 1
		}
	}

	if p.PlateauEnd < p.MinOutdoor {
		p.PlateauEnd = p.MinOutdoor
	}
	if p.PlateauStart > p.MaxOutdoor {
		p.PlateauStart = p.MaxOutdoor
	}
	if p.PlateauEnd > p.PlateauStart {
		if name == PlateauEnd {
			p.PlateauStart = p.PlateauEnd
		} else {
			p.PlateauEnd = p.PlateauStart
		}
	}
	// a push can carry the pair past the outdoor range; pull both back in
	p.PlateauStart = clampTo(p.PlateauStart, p.MinOutdoor, p.MaxOutdoor)
	p.PlateauEnd = clampTo(p.PlateauEnd, p.MinOutdoor, p.MaxOutdoor)

	s.p = p
	return p, nil
}

func boundaryField(p *models.CurveParameters, name Boundary) (*float64, error) {
	switch name {
	case MinFlow:
		return &p.MinFlow, nil
	case MaxFlow:
		return &p.MaxFlow, nil
	case MinOutdoor:
		return &p.MinOutdoor, nil
	case MaxOutdoor:
		return &p.MaxOutdoor, nil
	case PlateauStart:
		return &p.PlateauStart, nil
	case PlateauEnd:
		return &p.PlateauEnd, nil
	default:
		return nil, unknownIdent(string(name))
	}
}

func clampTo(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func unknownIdent(name string) error {
	return fmt.Errorf("%w: unknown ident %q", ErrInvalidArgument, name)
}
