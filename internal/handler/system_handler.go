package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"activation-key-service/pkg/httputil"
)

// Pinger はデータベースの疎通確認を行う。*sql.DB が満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler はトップページ・ヘルスチェック・メトリクスを提供する。
type SystemHandler struct {
	db      Pinger
	metrics http.Handler
}

// NewSystemHandler は新しいSystemHandlerを生成する。metrics が nil の場合 /metrics は404を返す。
func NewSystemHandler(db Pinger, metrics http.Handler) *SystemHandler {
	return &SystemHandler{db: db, metrics: metrics}
}

// Home は歓迎メッセージを返す。
func (h *SystemHandler) Home(w http.ResponseWriter, r *http.Request) {
	httputil.Message(w, http.StatusOK, "Welcome to the Activation Key API!")
}

// Health はデータベースへの疎通を確認する。
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.ErrorContext(ctx, "health check failed", "error", err)
		httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics はPrometheus形式のメトリクスを返す。
func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		http.NotFound(w, r)
		return
	}
	h.metrics.ServeHTTP(w, r)
}
