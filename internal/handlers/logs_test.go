package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"heating_curve/internal/models"
	"heating_curve/internal/service"
)

type logsResponse struct {
	Count  int                 `json:"count"`
	Events []models.CurveEvent `json:"events"`
}

func curveEvents(now time.Time) []models.CurveEvent {
	return []models.CurveEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventConfigApplied, Description: "configuration applied"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventParamAdjusted, Description: "MinVL adjusted by 1"},
		{EventID: "e3", OccurredAt: now.Add(2 * time.Second), Type: models.EventDirectWrite, Description: "wrote 41.0"},
	}
}

func TestLogsHandler_QueryValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"bad from", "?from=notatime", errFromInvalid},
		{"bad to", "?to=yesterday", errToInvalid},
		{"reversed range", "?from=2025-08-02&to=2025-08-01", errRangeInvalid},
		{"zero limit", "?limit=0", errLimitInvalid},
		{"text limit", "?limit=all", errLimitInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &mockEventLog{}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

			w := do(r, http.MethodGet, "/api/v1/logs/"+tt.query, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["error"] != tt.want.Error() {
				t.Fatalf("error=%q want %q", body["error"], tt.want.Error())
			}
		})
	}
}

func TestLogsHandler_FilterPassedToService(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	logs := &mockEventLog{resp: curveEvents(now)}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 99}, EventLog: logs})

	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) +
		"&to=" + now.Add(2*time.Second).Format(time.RFC3339) +
		"&type=%20param_adjusted"
	w := do(r, http.MethodGet, q, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out logsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 3 || len(out.Events) != 3 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != models.EventParamAdjusted {
		t.Fatalf("lastType=%q", logs.lastType)
	}
	if !logs.lastFrom.Equal(now) || !logs.lastTo.Equal(now.Add(2*time.Second)) {
		t.Fatalf("range=%v..%v", logs.lastFrom, logs.lastTo)
	}
}

func TestLogsHandler_LimitKeepsNewest(t *testing.T) {
	now := time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC)
	logs := &mockEventLog{resp: curveEvents(now)}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	w := do(r, http.MethodGet, "/api/v1/logs/?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out logsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || out.Events[0].EventID != "e2" || out.Events[1].EventID != "e3" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	w := do(r, http.MethodGet, "/api/v1/logs/?from=2025-08-01&to=2025-08-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := time.Date(2025, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(want) {
		t.Fatalf("lastTo=%v want %v", logs.lastTo, want)
	}
}

func TestLogsHandler_ServiceError(t *testing.T) {
	logs := &mockEventLog{err: errors.New("db down")}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	w := do(r, http.MethodGet, "/api/v1/logs/", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestLogsHandler_UnknownTypeFromService(t *testing.T) {
	logs := &mockEventLog{err: fmt.Errorf("%w: unknown event type %q", service.ErrInvalidArgument, "STOP")}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	w := do(r, http.MethodGet, "/api/v1/logs/?type=stop", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
