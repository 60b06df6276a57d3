package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"heating_curve/internal/service"
)

func postJSON(s *service.Service, path, body string) *httptest.ResponseRecorder {
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers(t *testing.T) {
	const creds = `{"username":"operator","password":"secret"}`

	tests := []struct {
		name     string
		auth     *mockAuth
		path     string
		body     string
		wantCode int
		wantKey  string
		wantVal  any
	}{
		{
			name: "sign-up", auth: &mockAuth{signUpID: 42},
			path: "/auth/sign-up", body: creds,
			wantCode: http.StatusOK, wantKey: "id", wantVal: float64(42),
		},
		{
			name: "sign-up rejected", auth: &mockAuth{signUpErr: errors.New("insert user: UNIQUE constraint failed")},
			path: "/auth/sign-up", body: creds,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "sign-in", auth: &mockAuth{genTokenToken: "tok123"},
			path: "/auth/sign-in", body: creds,
			wantCode: http.StatusOK, wantKey: "token", wantVal: "tok123",
		},
		{
			name: "sign-in wrong password", auth: &mockAuth{genTokenErr: service.ErrInvalidPassword},
			path: "/auth/sign-in", body: creds,
			wantCode: http.StatusUnauthorized, wantKey: "error", wantVal: "invalid credentials",
		},
		{
			name: "sign-in unknown operator", auth: &mockAuth{genTokenErr: service.ErrUserNotFound},
			path: "/auth/sign-in", body: creds,
			wantCode: http.StatusUnauthorized, wantKey: "error", wantVal: "invalid credentials",
		},
		{
			name: "bad body", auth: &mockAuth{},
			path: "/auth/sign-in", body: `{"username":1}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(&service.Service{Authorization: tt.auth}, tt.path, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if tt.wantKey == "" {
				return
			}
			var m map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &m)
			if m[tt.wantKey] != tt.wantVal {
				t.Fatalf("%s=%v want %v", tt.wantKey, m[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestSignUpPassesCredentials(t *testing.T) {
	auth := &mockAuth{signUpID: 1}
	w := postJSON(&service.Service{Authorization: auth}, "/auth/sign-up", `{"username":"op","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if auth.lastSignUpUsername != "op" || auth.lastSignUpPassword != "pw" {
		t.Fatalf("got %q/%q", auth.lastSignUpUsername, auth.lastSignUpPassword)
	}
}
