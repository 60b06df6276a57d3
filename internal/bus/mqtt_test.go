package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"heating_curve/internal/logger"
	"heating_curve/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err  error
	done chan struct{}
}

func newDoneToken(err error) *doneToken {
	ch := make(chan struct{})
	close(ch)
	return &doneToken{err: err, done: ch}
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	body     []byte
}

// fakeClient implements the parts of paho.Client the bus uses.
type fakeClient struct {
	paho.Client

	mu         sync.Mutex
	connected  bool
	publishErr error
	published  []published
	handlers   map[string]paho.MessageHandler
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, qos: qos, retained: retained, body: payload.([]byte)})
	return newDoneToken(c.publishErr)
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = map[string]paho.MessageHandler{}
	}
	c.handlers[topic] = cb
	return newDoneToken(nil)
}

func (c *fakeClient) Disconnect(uint) { c.connected = false }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type ingested struct {
	id    int64
	value float64
}

type fakeIngester struct {
	got []ingested
	err error
}

func (f *fakeIngester) Ingest(_ context.Context, id int64, value float64) error {
	f.got = append(f.got, ingested{id, value})
	return f.err
}

func TestMQTT_RunActionPublishesToActionTopic(t *testing.T) {
	c := &fakeClient{connected: true}
	m := newMQTT(c, "heating", logger.Nop())

	require.True(t, m.HasAction(4))
	require.NoError(t, m.RunAction(context.Background(), 4, 2, 41))

	require.Len(t, c.published, 1)
	assert.Equal(t, "heating/actions/4", c.published[0].topic)
	assert.False(t, c.published[0].retained)
	var msg ActionMessage
	require.NoError(t, json.Unmarshal(c.published[0].body, &msg))
	assert.Equal(t, ActionMessage{Variable: 2, Value: 41}, msg)
}

func TestMQTT_HasActionNeedsConnection(t *testing.T) {
	m := newMQTT(&fakeClient{connected: false}, "heating", logger.Nop())
	assert.False(t, m.HasAction(4))

	m = newMQTT(&fakeClient{connected: true}, "heating", logger.Nop())
	assert.False(t, m.HasAction(0))
}

func TestMQTT_PublishRetainsState(t *testing.T) {
	c := &fakeClient{connected: true}
	m := newMQTT(c, "heating", logger.Nop())
	at := 2.5

	require.NoError(t, m.Publish(context.Background(), models.Payload{MinVorlauf: 25, AT: &at}))

	require.Len(t, c.published, 1)
	assert.Equal(t, "heating/curve/state", c.published[0].topic)
	assert.True(t, c.published[0].retained)
	assert.Contains(t, string(c.published[0].body), `"VL":null`)
}

func TestMQTT_PublishError(t *testing.T) {
	c := &fakeClient{connected: true, publishErr: errors.New("not connected")}
	m := newMQTT(c, "heating", logger.Nop())

	err := m.Publish(context.Background(), models.Payload{})
	assert.ErrorIs(t, err, c.publishErr)
}

func TestMQTT_ReadingsAreIngested(t *testing.T) {
	c := &fakeClient{connected: true}
	m := newMQTT(c, "heating", logger.Nop())
	ing := &fakeIngester{}
	require.NoError(t, m.SubscribeReadings(ing))

	h := c.handlers["heating/variables/+/set"]
	require.NotNil(t, h)
	h(c, fakeMessage{topic: "heating/variables/1/set", payload: []byte("3.5")})
	h(c, fakeMessage{topic: "heating/variables/2/set", payload: []byte(`{"value":40}`)})
	h(c, fakeMessage{topic: "heating/variables/x/set", payload: []byte("1")})
	h(c, fakeMessage{topic: "heating/variables/3/set", payload: []byte("warm")})

	assert.Equal(t, []ingested{{1, 3.5}, {2, 40}}, ing.got)
}
