package service

import (
	"context"

	"heating_curve/internal/config"
	"heating_curve/internal/models"
	"heating_curve/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Curve is the tile-facing side of the recalculation controller.
type Curve interface {
	Adjust(ctx context.Context, ident string, delta float64) (models.Payload, error)
	Handshake(ctx context.Context) models.Payload
	State(ctx context.Context) models.Payload
	Tile(ctx context.Context) models.Payload
	Preview(outdoor float64) float64
	Parameters() models.CurveParameters
}

// EventLog exposes the append-only curve event log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CurveEvent, error)
}

// Variables exposes the sensor/actuator variable storage.
type Variables interface {
	Get(ctx context.Context, id int64) (models.Variable, error)
	Define(ctx context.Context, v models.Variable) error
	Write(ctx context.Context, id int64, value float64) error
}

// Service aggregates everything the HTTP layer needs.
type Service struct {
	Curve
	EventLog
	Variables
	Authorization
}

func NewService(repos *repository.Repository, curve Curve, vars Variables, auth config.Auth) *Service {
	return &Service{
		Curve:         curve,
		EventLog:      NewEventLogService(repos.EventRepo),
		Variables:     vars,
		Authorization: NewAuthService(repos.Auth, auth),
	}
}
