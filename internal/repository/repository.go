package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"heating_curve/internal/models"
)

// ErrVariableNotFound is returned when no variable row exists for an id.
var ErrVariableNotFound = errors.New("variable not found")

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// VariableRepo stores sensor and actuator variables.
type VariableRepo interface {
	Save(ctx context.Context, v models.Variable) error
	Get(ctx context.Context, id int64) (models.Variable, error)
	SetValue(ctx context.Context, id int64, value float64) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.CurveEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CurveEvent, error)
}

type Repository struct {
	Variables VariableRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Variables: NewVariableSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
