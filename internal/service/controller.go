package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"heating_curve/internal/config"
	"heating_curve/internal/curve"
	"heating_curve/internal/logger"
	"heating_curve/internal/metrics"
	"heating_curve/internal/models"
	"heating_curve/internal/variables"

	"github.com/google/uuid"
)

// Trigger names the event that started a recalculation.
type Trigger string

const (
	TriggerConfig    Trigger = "config"
	TriggerSensor    Trigger = "sensor"
	TriggerAdjust    Trigger = "adjust"
	TriggerHandshake Trigger = "handshake"
)

// SensorSource supplies the outdoor temperature.
type SensorSource interface {
	Read(ctx context.Context, id int64) (float64, error)
}

// Notifier delivers value changes of a variable.
type Notifier interface {
	OnChange(id int64, cb func(id int64)) (variables.Subscription, error)
}

// EventRecorder stores curve events.
type EventRecorder interface {
	Append(ctx context.Context, e models.CurveEvent) error
}

// Publisher receives every payload the controller produces.
type Publisher interface {
	Publish(ctx context.Context, p models.Payload) error
}

// ControllerDeps groups the collaborators of a Controller. Events may be nil.
type ControllerDeps struct {
	Sensor   SensorSource
	Notifier Notifier
	Actuator ActuatorSink
	Events   EventRecorder
	Log      *logger.Logger
}

// Controller keeps one actuator variable equal to the heating curve evaluated
// at the current outdoor temperature. All triggers run one at a time.
type Controller struct {
	mu sync.Mutex

	params   *ParameterStore
	sensor   SensorSource
	notifier Notifier
	writer   *ActuatorWriter
	events   EventRecorder
	log      *logger.Logger

	curveCfg config.Curve
	bindings config.Bindings

	sub          variables.Subscription
	subscribedID int64

	pubMu      sync.RWMutex
	publishers []Publisher

	last *models.Payload

	// actuator id and target bits while the controller writes; a notification
	// for that id carrying the target is our own echo
	writingTo  atomic.Int64
	writingVal atomic.Uint64
}

// NewController builds an idle controller. Call ApplyConfig to start it.
func NewController(d ControllerDeps) *Controller {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		params:   NewParameterStore(models.CurveParameters{}),
		sensor:   d.Sensor,
		notifier: d.Notifier,
		writer:   NewActuatorWriter(d.Actuator, log.Named("actuator")),
		events:   d.Events,
		log:      log,
	}
}

// AddPublisher registers p for all following payloads.
func (c *Controller) AddPublisher(p Publisher) {
	c.pubMu.Lock()
	c.publishers = append(c.publishers, p)
	c.pubMu.Unlock()
}

// ApplyConfig resets the parameters to cur's defaults, moves the sensor
// subscription to b.SensorSourceID and recalculates. An invalid configuration
// is logged and suppresses writes; it is not returned as an error.
func (c *Controller) ApplyConfig(ctx context.Context, cur config.Curve, b config.Bindings) models.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.curveCfg = cur
	c.bindings = b
	c.params.Reset(ParametersFromConfig(cur))
	c.resubscribe(b.SensorSourceID)

	err := Validate(c.params.Snapshot(), cur.UsePlateau, b)
	valid := err == nil
	metrics.SetConfigValid(valid)
	if !valid {
		c.log.Warnw("config_invalid", "err", err)
	}
	c.record(ctx, models.EventConfigApplied, "configuration applied", map[string]any{
		"valid":    valid,
		"sensor":   b.SensorSourceID,
		"actuator": b.ActuatorSinkID,
		"curve":    cur,
	})
	return c.recalculate(ctx, TriggerConfig, valid)
}

// resubscribe must be called with c.mu held.
func (c *Controller) resubscribe(id int64) {
	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}
	c.subscribedID = 0
	if id <= 0 || c.notifier == nil {
		return
	}
	sub, err := c.notifier.OnChange(id, c.onSensorChange)
	if err != nil {
		c.log.Errorw("sensor_subscribe_failed", "var_id", id, "err", err)
		return
	}
	c.sub = sub
	c.subscribedID = id
	c.log.Debugw("sensor_subscribed", "var_id", id)
}

func (c *Controller) onSensorChange(id int64) {
	if id != c.writingTo.Load() {
		c.SensorChanged(context.Background(), id)
		return
	}
	if c.isOwnEcho(id) {
		return
	}
	// a foreign update of the shared variable; c.mu is held by the write in
	// progress, so recalculate once it is released
	go c.SensorChanged(context.Background(), id)
}

func (c *Controller) isOwnEcho(id int64) bool {
	v, err := c.sensor.Read(context.Background(), id)
	if err != nil {
		return true
	}
	return math.Abs(v-math.Float64frombits(c.writingVal.Load())) <= writeTolerance
}

// SensorChanged recalculates when id is the subscribed sensor. It reports
// whether a recalculation ran.
func (c *Controller) SensorChanged(ctx context.Context, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id <= 0 || id != c.subscribedID {
		return false
	}
	c.recalculate(ctx, TriggerSensor, true)
	return true
}

// Handshake returns the current state without changing parameters. The
// actuator write outlives a cancelled ctx.
func (c *Controller) Handshake(ctx context.Context) models.Payload {
	ctx = context.WithoutCancel(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recalculate(ctx, TriggerHandshake, true)
}

// Adjust handles one UI request. Init is a handshake; any other ident moves
// that boundary by delta and pushes the result before the actuator is written.
// A client going away mid-request does not abort the write or the event log.
func (c *Controller) Adjust(ctx context.Context, ident string, delta float64) (models.Payload, error) {
	if ident == IdentInit {
		return c.Handshake(ctx), nil
	}
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.params.ApplyDelta(Boundary(ident), delta)
	if err != nil {
		return models.Payload{}, err
	}
	metrics.Recalculations.WithLabelValues(string(TriggerAdjust)).Inc()
	c.record(ctx, models.EventParamAdjusted, fmt.Sprintf("%s adjusted by %g", ident, delta), map[string]any{
		"ident":  ident,
		"delta":  delta,
		"params": p,
	})

	at := c.readSensor(ctx)
	var vl *float64
	if at != nil {
		v := c.evaluate(p, *at)
		vl = &v
	}
	payload := c.payload(p, at, vl)
	c.publish(ctx, payload)

	if vl != nil && c.bindings.ActuatorSinkID > 0 {
		c.write(ctx, *vl)
	}
	return payload, nil
}

// State returns the last published payload, running a handshake when nothing
// was published yet.
func (c *Controller) State(ctx context.Context) models.Payload {
	c.mu.Lock()
	if c.last != nil {
		p := *c.last
		c.mu.Unlock()
		return p
	}
	c.mu.Unlock()
	return c.Handshake(ctx)
}

// Tile returns the payload for the configured defaults at the current reading.
// It neither mutates parameters nor writes the actuator.
func (c *Controller) Tile(ctx context.Context) models.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := ParametersFromConfig(c.curveCfg)
	at := c.readSensor(ctx)
	var vl *float64
	if at != nil {
		v := c.evaluate(p, *at)
		vl = &v
	}
	return c.payload(p, at, vl)
}

// Preview evaluates the current parameters at outdoor.
func (c *Controller) Preview(outdoor float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluate(c.params.Snapshot(), outdoor)
}

// Parameters returns the runtime curve parameters.
func (c *Controller) Parameters() models.CurveParameters {
	return c.params.Snapshot()
}

// Close releases the sensor subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resubscribe(0)
}

// recalculate must be called with c.mu held.
func (c *Controller) recalculate(ctx context.Context, trigger Trigger, valid bool) models.Payload {
	metrics.Recalculations.WithLabelValues(string(trigger)).Inc()

	p := c.params.Snapshot()
	at := c.readSensor(ctx)
	var vl *float64
	if valid && at != nil && c.bindings.ActuatorSinkID > 0 {
		v := c.evaluate(p, *at)
		vl = &v
		c.write(ctx, v)
	}
	payload := c.payload(p, at, vl)
	c.publish(ctx, payload)
	c.log.Debugw("recalculated", "trigger", trigger, "valid", valid, "at", at, "vl", vl)
	return payload
}

func (c *Controller) readSensor(ctx context.Context) *float64 {
	id := c.bindings.SensorSourceID
	if id <= 0 {
		return nil
	}
	v, err := c.sensor.Read(ctx, id)
	if err != nil {
		c.log.Debugw("sensor_unavailable", "var_id", id, "err", err)
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.log.Warnw("sensor_not_finite", "var_id", id, "value", fmt.Sprint(v))
		return nil
	}
	metrics.OutdoorTemperature.Set(v)
	return &v
}

func (c *Controller) evaluate(p models.CurveParameters, outdoor float64) float64 {
	var plateau *curve.Plateau
	if c.curveCfg.UsePlateau {
		plateau = &curve.Plateau{Start: p.PlateauStart, End: p.PlateauEnd}
	}
	return curve.Evaluate(outdoor, p.MinFlow, p.MaxFlow, p.MinOutdoor, p.MaxOutdoor, plateau)
}

func (c *Controller) write(ctx context.Context, target float64) {
	id := c.bindings.ActuatorSinkID
	metrics.FlowTarget.Set(target)

	c.writingVal.Store(math.Float64bits(target))
	c.writingTo.Store(id)
	res := c.writer.WriteIfChanged(ctx, id, target)
	c.writingTo.Store(0)

	metrics.ActuatorWrites.WithLabelValues(string(res.Outcome)).Inc()
	meta := map[string]any{"var_id": id, "target": target, "previous": res.Previous}
	switch res.Outcome {
	case OutcomeActionVerified:
		meta["action_id"] = res.ActionID
		c.record(ctx, models.EventActionVerified, fmt.Sprintf("action %d set %.1f", res.ActionID, target), meta)
	case OutcomeDirectWrite:
		c.record(ctx, models.EventDirectWrite, fmt.Sprintf("wrote %.1f", target), meta)
	case OutcomeFailed:
		meta["error"] = res.Err.Error()
		c.record(ctx, models.EventWriteFailed, "actuator write failed", meta)
	case OutcomeMissing:
		c.record(ctx, models.EventActuatorMissing, fmt.Sprintf("actuator %d not found", id), meta)
	}
}

func (c *Controller) payload(p models.CurveParameters, at, vl *float64) models.Payload {
	return models.NewPayload(p, c.curveCfg.DisplayScaleMin, c.curveCfg.DisplayScaleMax, at, vl)
}

func (c *Controller) publish(ctx context.Context, p models.Payload) {
	c.last = &p
	c.pubMu.RLock()
	pubs := c.publishers
	c.pubMu.RUnlock()
	for _, pub := range pubs {
		if err := pub.Publish(ctx, p); err != nil {
			c.log.Warnw("publish_failed", "err", err)
		}
	}
}

func (c *Controller) record(ctx context.Context, typ, desc string, meta map[string]any) {
	if c.events == nil {
		return
	}
	e := models.CurveEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
	if err := c.events.Append(ctx, e); err != nil {
		c.log.Errorw("event_append_failed", "type", typ, "err", err)
	}
}
