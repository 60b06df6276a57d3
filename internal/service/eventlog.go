package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heating_curve/internal/models"
	"heating_curve/internal/repository"
)

var knownEventTypes = map[string]bool{
	models.EventConfigApplied:   true,
	models.EventParamAdjusted:   true,
	models.EventActionVerified:  true,
	models.EventDirectWrite:     true,
	models.EventWriteFailed:     true,
	models.EventActuatorMissing: true,
}

// EventLogService reads the curve event log.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// List returns the events matching f, oldest first. A reversed range or an
// unknown type fails with ErrInvalidArgument.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.CurveEvent, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, f.From, f.To, f.Type)
}

func normalizeFilter(f LogFilter) (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("%w: from %s is after to %s", ErrInvalidArgument, f.From.Format(time.RFC3339), f.To.Format(time.RFC3339))
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if f.Type != "" && !knownEventTypes[f.Type] {
		return f, fmt.Errorf("%w: unknown event type %q", ErrInvalidArgument, f.Type)
	}
	return f, nil
}
