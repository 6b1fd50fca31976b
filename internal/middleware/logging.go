// Package middleware はHTTPミドルウェアと監査ログを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// 監査ログの結果。
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDenied  = "denied"
	ResultExpired = "expired"
)

// OperationRecorder は操作結果をメトリクスに記録する。
type OperationRecorder interface {
	ObserveOperation(operation, result string)
}

// RequestRecorder はHTTPリクエストをメトリクスに記録する。
type RequestRecorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// AuditLogger は監査ログを出力する。
type AuditLogger struct {
	recorder OperationRecorder
	newID    func() string
}

// NewAuditLogger は新しいAuditLoggerを生成する。recorder は nil でもよい。
func NewAuditLogger(recorder OperationRecorder) *AuditLogger {
	return &AuditLogger{
		recorder: recorder,
		newID:    uuid.NewString,
	}
}

// Write は監査ログを出力する。subject には鍵のダイジェストかIPを渡し、平文の鍵は渡さない。
func (a *AuditLogger) Write(ctx context.Context, operation, subject, result string) {
	slog.InfoContext(ctx, "operation completed",
		"event_id", a.newID(),
		"operation", operation,
		"subject", subject,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
	if a.recorder != nil {
		a.recorder.ObserveOperation(operation, result)
	}
}

// RequestLogger はリクエストごとにアクセスログを出力する。
// /check/{key} のようにパスに鍵が含まれるため、生のパスではなくルートパターンを記録する。
func RequestLogger(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			slog.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
			if recorder != nil {
				recorder.ObserveRequest(r.Method, route, status, elapsed)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
