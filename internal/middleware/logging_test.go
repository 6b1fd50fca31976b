package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type recordedOp struct{ operation, result string }

type stubRecorder struct {
	ops      []recordedOp
	requests []string
}

func (s *stubRecorder) ObserveOperation(operation, result string) {
	s.ops = append(s.ops, recordedOp{operation, result})
}

func (s *stubRecorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	s.requests = append(s.requests, method+" "+route)
}

// captureLogs はテスト中のデフォルトロガーをバッファに差し替える。
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestAuditLogger_Write(t *testing.T) {
	buf := captureLogs(t)
	recorder := &stubRecorder{}
	audit := NewAuditLogger(recorder)
	audit.newID = func() string { return "evt-1" }

	audit.Write(context.Background(), "activate", "3f2a9c", ResultSuccess)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log: %v", err)
	}
	for key, want := range map[string]string{
		"event_id":  "evt-1",
		"operation": "activate",
		"subject":   "3f2a9c",
		"result":    ResultSuccess,
	} {
		if entry[key] != want {
			t.Errorf("%s: expected %q, got %v", key, want, entry[key])
		}
	}
	if _, err := time.Parse(time.RFC3339, entry["timestamp"].(string)); err != nil {
		t.Errorf("timestamp not RFC3339: %v", err)
	}
	if len(recorder.ops) != 1 || recorder.ops[0] != (recordedOp{"activate", ResultSuccess}) {
		t.Errorf("unexpected recorded ops: %v", recorder.ops)
	}
}

func TestAuditLogger_NilRecorder(t *testing.T) {
	captureLogs(t)
	NewAuditLogger(nil).Write(context.Background(), "create", "abc", ResultFailure)
}

func TestRequestLogger_LogsRoutePattern(t *testing.T) {
	buf := captureLogs(t)
	recorder := &stubRecorder{}

	r := chi.NewRouter()
	r.Use(RequestLogger(recorder))
	r.Get("/check/{key}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check/SUPER-SECRET-KEY", nil))

	if strings.Contains(buf.String(), "SUPER-SECRET-KEY") {
		t.Fatalf("plaintext key leaked into access log: %s", buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log: %v", err)
	}
	if entry["route"] != "/check/{key}" {
		t.Errorf("expected route pattern, got %v", entry["route"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("expected status 404, got %v", entry["status"])
	}
	if len(recorder.requests) != 1 || recorder.requests[0] != "GET /check/{key}" {
		t.Errorf("unexpected recorded requests: %v", recorder.requests)
	}
}
