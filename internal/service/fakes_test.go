package service

import (
	"context"
	"sync"
	"time"

	"heating_curve/internal/models"
	"heating_curve/internal/variables"
)

// fakeVars is an in-memory variable backend implementing SensorSource,
// Notifier and ActuatorSink. Writes and applied actions notify subscribers
// the way variables.Store does, and a cancelled ctx fails every call like
// the sqlite-backed store.
type fakeVars struct {
	mu sync.Mutex

	values  map[int64]float64
	missing map[int64]bool

	actionID      int64
	actionApplies bool
	writeErr      error
	// runs once after the next write lands, before subscribers are notified
	afterWrite func(id int64)

	writes  int
	actions int

	next uint64
	subs map[int64]map[uint64]func(int64)
}

func newFakeVars() *fakeVars {
	return &fakeVars{
		values:  map[int64]float64{},
		missing: map[int64]bool{},
		subs:    map[int64]map[uint64]func(int64){},
	}
}

func (f *fakeVars) set(id int64, v float64) {
	f.mu.Lock()
	f.values[id] = v
	f.mu.Unlock()
}

func (f *fakeVars) value(id int64) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[id]
	return v, ok
}

func (f *fakeVars) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeVars) Capabilities(ctx context.Context, id int64) (models.Capabilities, error) {
	if err := ctx.Err(); err != nil {
		return models.Capabilities{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[id] {
		return models.Capabilities{}, variables.ErrNotFound
	}
	return models.Capabilities{ActionID: f.actionID}, nil
}

func (f *fakeVars) Read(ctx context.Context, id int64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[id] {
		return 0, variables.ErrNotFound
	}
	v, ok := f.values[id]
	if !ok {
		return 0, variables.ErrNoValue
	}
	return v, nil
}

func (f *fakeVars) Write(ctx context.Context, id int64, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.writes++
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return err
	}
	f.values[id] = value
	hook := f.afterWrite
	f.afterWrite = nil
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	f.notify(id)
	return nil
}

func (f *fakeVars) RunAction(ctx context.Context, id, _ int64, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.actions++
	applies := f.actionApplies
	if applies {
		f.values[id] = value
	}
	f.mu.Unlock()
	if applies {
		f.notify(id)
	}
	return nil
}

type fakeSub struct{ cancel func() }

func (s fakeSub) Cancel() { s.cancel() }

func (f *fakeVars) OnChange(id int64, cb func(int64)) (variables.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	key := f.next
	if f.subs[id] == nil {
		f.subs[id] = map[uint64]func(int64){}
	}
	f.subs[id][key] = cb
	return fakeSub{cancel: func() {
		f.mu.Lock()
		delete(f.subs[id], key)
		f.mu.Unlock()
	}}, nil
}

func (f *fakeVars) subscribers(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[id])
}

// change sets a new value and fires notifications, like an incoming reading.
func (f *fakeVars) change(id int64, v float64) {
	f.set(id, v)
	f.notify(id)
}

func (f *fakeVars) notify(id int64) {
	f.mu.Lock()
	cbs := make([]func(int64), 0, len(f.subs[id]))
	for _, cb := range f.subs[id] {
		cbs = append(cbs, cb)
	}
	f.mu.Unlock()
	for _, cb := range cbs {
		cb(id)
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads []models.Payload
}

func (p *fakePublisher) Publish(_ context.Context, pl models.Payload) error {
	p.mu.Lock()
	p.payloads = append(p.payloads, pl)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func (p *fakePublisher) lastPayload() models.Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payloads[len(p.payloads)-1]
}

type fakeEventRepo struct {
	gotCtx  context.Context
	gotFrom time.Time
	gotTo   time.Time
	gotType string

	events []models.CurveEvent
	err    error

	calls    int
	appended []models.CurveEvent
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.CurveEvent, error) {
	f.calls++
	f.gotCtx, f.gotFrom, f.gotTo, f.gotType = ctx, from, to, typ
	return f.events, f.err
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.CurveEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) types() []string {
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}
