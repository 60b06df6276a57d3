package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	maxInterval      = 10 * time.Minute
	maxIntervalMilli = 600_000

	msgState = "state"
	msgError = "error"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect streams every published state to the client and applies the
// {"ident","value"} requests it sends. With ?interval= the last state is also
// resent periodically.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := h.hub.register()
	defer h.hub.unregister(client)

	ctx := c.Request.Context()
	done := make(chan struct{})
	go h.startReader(ctx, conn, client, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	var refresh <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		refresh = t.C
	}

	if err := h.write(conn, wsEnvelope{Type: msgState, Data: h.services.Curve.State(ctx)}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-refresh:
			if err := h.write(conn, wsEnvelope{Type: msgState, Data: h.services.Curve.State(ctx)}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case env := <-client.send:
			if err := h.write(conn, env); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=30s or ?interval_ms=30000. Missing or out of
// range values disable the periodic resend.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return 0
}

// startReader applies inbound adjustment requests until the connection closes.
// The resulting state reaches the client through the hub; only errors are
// answered directly.
func (h *Handler) startReader(ctx context.Context, conn *websocket.Conn, client *wsClient, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		var req ActionRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Ident == "" {
			client.reply(wsEnvelope{Type: msgError, Error: "expected {\"ident\":string,\"value\":number}"})
			continue
		}
		if _, err := h.services.Curve.Adjust(ctx, req.Ident, req.Value); err != nil {
			client.reply(wsEnvelope{Type: msgError, Error: err.Error()})
		}
	}
}

func (c *wsClient) reply(env wsEnvelope) {
	select {
	case c.send <- env:
	default:
	}
}

func (h *Handler) write(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
