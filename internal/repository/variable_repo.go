package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"heating_curve/internal/models"
)

type VariableSQLite struct {
	db *sql.DB
}

func NewVariableSQLite(db *sql.DB) *VariableSQLite {
	return &VariableSQLite{db: db}
}

var _ VariableRepo = (*VariableSQLite)(nil)

const (
	upsertVariableSQL = `
		INSERT INTO variables (id, name, value, custom_action, action, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			value=excluded.value,
			custom_action=excluded.custom_action,
			action=excluded.action,
			updated_at=excluded.updated_at
	`

	updateVariableValueSQL = `UPDATE variables SET value=?, updated_at=? WHERE id=?`

	selectVariableSQL = `
		SELECT id, name, value, custom_action, action, updated_at
		FROM variables WHERE id=?
	`
)

// utcOrNow persists timestamps as UTC and fills in zero values.
func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func nullableValue(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Save inserts or replaces a variable definition including its value.
func (r *VariableSQLite) Save(ctx context.Context, v models.Variable) error {
	_, err := r.db.ExecContext(ctx, upsertVariableSQL,
		v.ID,
		v.Name,
		nullableValue(v.Value),
		v.CustomAction,
		v.Action,
		utcOrNow(v.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save variable %d: %w", v.ID, err)
	}
	return nil
}

// SetValue stores a new value for an existing variable.
func (r *VariableSQLite) SetValue(ctx context.Context, id int64, value float64) error {
	res, err := r.db.ExecContext(ctx, updateVariableValueSQL, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set variable %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set variable %d: %w", id, err)
	}
	if n == 0 {
		return ErrVariableNotFound
	}
	return nil
}

// Get fetches one variable.
func (r *VariableSQLite) Get(ctx context.Context, id int64) (models.Variable, error) {
	row := r.db.QueryRowContext(ctx, selectVariableSQL, id)

	var (
		v     models.Variable
		value sql.NullFloat64
	)
	if err := row.Scan(&v.ID, &v.Name, &value, &v.CustomAction, &v.Action, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Variable{}, ErrVariableNotFound
		}
		return models.Variable{}, fmt.Errorf("get variable %d: %w", id, err)
	}
	if value.Valid {
		f := value.Float64
		v.Value = &f
	}
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}
