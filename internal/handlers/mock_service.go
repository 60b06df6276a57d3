package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"heating_curve/internal/models"
	"heating_curve/internal/service"
	"heating_curve/internal/variables"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type adjustCall struct {
	ident string
	delta float64
}

type mockCurve struct {
	mu sync.Mutex

	state     models.Payload
	tile      models.Payload
	params    models.CurveParameters
	adjustErr error
	onAdjust  func(ident string, delta float64)

	adjusts    []adjustCall
	handshakes int
	previewAt  float64
}

func (m *mockCurve) Adjust(ctx context.Context, ident string, delta float64) (models.Payload, error) {
	m.mu.Lock()
	m.adjusts = append(m.adjusts, adjustCall{ident, delta})
	err, cb := m.adjustErr, m.onAdjust
	st := m.state
	m.mu.Unlock()
	if err != nil {
		return models.Payload{}, err
	}
	if cb != nil {
		cb(ident, delta)
	}
	return st, nil
}
func (m *mockCurve) Handshake(ctx context.Context) models.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handshakes++
	return m.state
}
func (m *mockCurve) State(ctx context.Context) models.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
func (m *mockCurve) Tile(ctx context.Context) models.Payload { return m.tile }
func (m *mockCurve) Preview(outdoor float64) float64 {
	m.previewAt = outdoor
	return 40
}
func (m *mockCurve) Parameters() models.CurveParameters { return m.params }

func (m *mockCurve) calls() []adjustCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]adjustCall(nil), m.adjusts...)
}

type mockVariables struct {
	vars    map[int64]models.Variable
	err     error
	defined []models.Variable
	writes  map[int64]float64
}

func (m *mockVariables) Get(ctx context.Context, id int64) (models.Variable, error) {
	if m.err != nil {
		return models.Variable{}, m.err
	}
	v, ok := m.vars[id]
	if !ok {
		return models.Variable{}, variables.ErrNotFound
	}
	return v, nil
}
func (m *mockVariables) Define(ctx context.Context, v models.Variable) error {
	if m.err != nil {
		return m.err
	}
	m.defined = append(m.defined, v)
	return nil
}
func (m *mockVariables) Write(ctx context.Context, id int64, value float64) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.vars[id]; !ok {
		return variables.ErrNotFound
	}
	if m.writes == nil {
		m.writes = map[int64]float64{}
	}
	m.writes[id] = value
	return nil
}

type mockEventLog struct {
	resp     []models.CurveEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CurveEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, true)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
