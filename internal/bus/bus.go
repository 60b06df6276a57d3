// Package bus connects the curve engine to MQTT and Kafka. MQTT carries
// incoming variable readings, action invocations and the retained tile state;
// Kafka receives a copy of every published state for downstream consumers.
package bus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errBadTopic = errors.New("unexpected topic")

// Topics derives every topic name from one prefix.
type Topics struct {
	Prefix string
}

// State is the retained topic holding the last tile payload.
func (t Topics) State() string { return t.Prefix + "/curve/state" }

// Action is the topic an action target listens on.
func (t Topics) Action(actionID int64) string {
	return fmt.Sprintf("%s/actions/%d", t.Prefix, actionID)
}

// VariableSet matches value updates for any variable.
func (t Topics) VariableSet() string { return t.Prefix + "/variables/+/set" }

// VariableID extracts the id from a <prefix>/variables/<id>/set topic.
func (t Topics) VariableID(topic string) (int64, error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/variables/")
	if !ok {
		return 0, fmt.Errorf("%w: %s", errBadTopic, topic)
	}
	idStr, ok := strings.CutSuffix(rest, "/set")
	if !ok {
		return 0, fmt.Errorf("%w: %s", errBadTopic, topic)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad variable id in %s", errBadTopic, topic)
	}
	return id, nil
}

// ActionMessage is the body sent to an action target.
type ActionMessage struct {
	Variable int64   `json:"variable"`
	Value    float64 `json:"value"`
}

var errNotFinite = errors.New("value is not a finite number")

// ParseValue accepts a bare number or {"value": x}. NaN and infinities are
// rejected.
func ParseValue(payload []byte) (float64, error) {
	s := bytes.TrimSpace(payload)
	if len(s) == 0 {
		return 0, errors.New("empty payload")
	}
	if s[0] == '{' {
		var body struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(s, &body); err != nil {
			return 0, fmt.Errorf("decode value: %w", err)
		}
		if body.Value == nil {
			return 0, errors.New("payload has no value field")
		}
		return *body.Value, nil
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse value: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse value %q: %w", s, errNotFinite)
	}
	return v, nil
}
