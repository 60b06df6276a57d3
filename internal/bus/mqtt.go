package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"heating_curve/internal/config"
	"heating_curve/internal/logger"
	"heating_curve/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Ingester stores readings arriving from the broker.
type Ingester interface {
	Ingest(ctx context.Context, id int64, value float64) error
}

// MQTT is the broker connection. It runs variable actions, publishes the tile
// state and feeds readings to an Ingester.
type MQTT struct {
	client paho.Client
	topics Topics
	log    *logger.Logger
}

// DialMQTT connects to cfg.Broker and keeps reconnecting in the background.
func DialMQTT(cfg config.MQTT, log *logger.Logger) (*MQTT, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		// handlers publish from inside the callback
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("mqtt_connection_lost", "err", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	log.Infow("mqtt_connected", "broker", cfg.Broker, "client_id", cfg.ClientID)
	return newMQTT(client, cfg.TopicPrefix, log), nil
}

func newMQTT(client paho.Client, prefix string, log *logger.Logger) *MQTT {
	return &MQTT{client: client, topics: Topics{Prefix: prefix}, log: log}
}

// HasAction reports whether actions can currently be delivered.
func (m *MQTT) HasAction(actionID int64) bool {
	return actionID > 0 && m.client.IsConnected()
}

// RunAction hands value for variableID to the action target.
func (m *MQTT) RunAction(ctx context.Context, actionID, variableID int64, value float64) error {
	body, err := json.Marshal(ActionMessage{Variable: variableID, Value: value})
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	return m.publish(ctx, m.topics.Action(actionID), 1, false, body)
}

// Publish stores p as the retained tile state.
func (m *MQTT) Publish(ctx context.Context, p models.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return m.publish(ctx, m.topics.State(), 1, true, body)
}

func (m *MQTT) publish(ctx context.Context, topic string, qos byte, retained bool, body []byte) error {
	token := m.client.Publish(topic, qos, retained, body)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// SubscribeReadings routes <prefix>/variables/<id>/set messages to ing.
func (m *MQTT) SubscribeReadings(ing Ingester) error {
	topic := m.topics.VariableSet()
	token := m.client.Subscribe(topic, 1, m.readingHandler(ing))
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	m.log.Infow("mqtt_subscribed", "topic", topic)
	return nil
}

func (m *MQTT) readingHandler(ing Ingester) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		id, err := m.topics.VariableID(msg.Topic())
		if err != nil {
			m.log.Warnw("mqtt_reading_rejected", "topic", msg.Topic(), "err", err)
			return
		}
		v, err := ParseValue(msg.Payload())
		if err != nil {
			m.log.Warnw("mqtt_reading_rejected", "topic", msg.Topic(), "err", err)
			return
		}
		if err := ing.Ingest(context.Background(), id, v); err != nil {
			m.log.Errorw("mqtt_reading_store_failed", "var_id", id, "err", err)
			return
		}
		m.log.Debugw("mqtt_reading", "var_id", id, "value", v)
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(1000)
}
