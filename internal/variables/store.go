// Package variables is the variable storage the curve engine reads its outdoor
// temperature from and writes its flow target to. Every stored value change is
// delivered to the subscribers of that variable.
package variables

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"heating_curve/internal/models"
	"heating_curve/internal/repository"
)

var (
	ErrNotFound = repository.ErrVariableNotFound
	ErrNoValue  = errors.New("variable has no value")
)

// ActionRunner invokes the action target attached to a variable.
type ActionRunner interface {
	RunAction(ctx context.Context, actionID, variableID int64, value float64) error
	HasAction(actionID int64) bool
}

// Subscription is returned by OnChange; Cancel stops delivery.
type Subscription interface {
	Cancel()
}

type subscription struct {
	cancel func()
	once   sync.Once
}

func (s *subscription) Cancel() { s.once.Do(s.cancel) }

// Store couples the variable repository with change notification.
type Store struct {
	repo   repository.VariableRepo
	runner ActionRunner

	mu   sync.Mutex
	next uint64
	subs map[int64]map[uint64]func(id int64)
}

// NewStore builds a store. runner may be nil, in which case no variable
// exposes an action.
func NewStore(repo repository.VariableRepo, runner ActionRunner) *Store {
	return &Store{
		repo:   repo,
		runner: runner,
		subs:   make(map[int64]map[uint64]func(id int64)),
	}
}

// SetActionRunner attaches a runner after construction.
func (s *Store) SetActionRunner(r ActionRunner) {
	s.mu.Lock()
	s.runner = r
	s.mu.Unlock()
}

// Define creates or replaces a variable and notifies when it carries a value.
func (s *Store) Define(ctx context.Context, v models.Variable) error {
	if v.ID <= 0 {
		return fmt.Errorf("define variable: invalid id %d", v.ID)
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return err
	}
	if v.Value != nil {
		s.notify(v.ID)
	}
	return nil
}

// Get returns the stored variable.
func (s *Store) Get(ctx context.Context, id int64) (models.Variable, error) {
	return s.repo.Get(ctx, id)
}

// Read returns the numeric value of a variable.
func (s *Store) Read(ctx context.Context, id int64) (float64, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if v.Value == nil {
		return 0, ErrNoValue
	}
	return *v.Value, nil
}

// Write stores value on an existing variable and notifies its subscribers.
func (s *Store) Write(ctx context.Context, id int64, value float64) error {
	if err := s.repo.SetValue(ctx, id, value); err != nil {
		return err
	}
	s.notify(id)
	return nil
}

// Ingest is Write for inbound readings: unknown variables are created.
func (s *Store) Ingest(ctx context.Context, id int64, value float64) error {
	err := s.Write(ctx, id, value)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.Define(ctx, models.Variable{ID: id, Value: &value})
}

// Capabilities reports the action target usable for writes to id.
func (s *Store) Capabilities(ctx context.Context, id int64) (models.Capabilities, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Capabilities{}, err
	}
	s.mu.Lock()
	runner := s.runner
	s.mu.Unlock()

	actionID := v.ActionID()
	if actionID <= 0 || runner == nil || !runner.HasAction(actionID) {
		return models.Capabilities{}, nil
	}
	return models.Capabilities{ActionID: actionID}, nil
}

// RunAction hands value to the action target of id.
func (s *Store) RunAction(ctx context.Context, id, actionID int64, value float64) error {
	s.mu.Lock()
	runner := s.runner
	s.mu.Unlock()
	if runner == nil {
		return fmt.Errorf("run action %d: no action runner", actionID)
	}
	return runner.RunAction(ctx, actionID, id, value)
}

// OnChange registers cb for value changes of id.
func (s *Store) OnChange(id int64, cb func(id int64)) (Subscription, error) {
	if id <= 0 {
		return nil, fmt.Errorf("subscribe: invalid variable id %d", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	key := s.next
	if s.subs[id] == nil {
		s.subs[id] = make(map[uint64]func(id int64))
	}
	s.subs[id][key] = cb
	return &subscription{cancel: func() { s.unsubscribe(id, key) }}, nil
}

// Subscribers reports how many callbacks are registered for id.
func (s *Store) Subscribers(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[id])
}

func (s *Store) unsubscribe(id int64, key uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[id], key)
	if len(s.subs[id]) == 0 {
		delete(s.subs, id)
	}
}

// notify runs callbacks outside the lock so they may call back into the store.
func (s *Store) notify(id int64) {
	s.mu.Lock()
	cbs := make([]func(int64), 0, len(s.subs[id]))
	for _, cb := range s.subs[id] {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(id)
	}
}
