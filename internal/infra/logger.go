package infra

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"activation-key-service/config"
)

// TraceHandler はスパンが有効なコンテキストのログにトレースIDを付与するslogハンドラ。
// GoogleCloudProject が設定されている場合は Cloud Logging 用のフィールドも付与する。
type TraceHandler struct {
	slog.Handler
	project string
	enabled bool
}

// NewTraceHandler は next をラップしたTraceHandlerを生成する。
func NewTraceHandler(next slog.Handler, cfg *config.Config) *TraceHandler {
	return &TraceHandler{Handler: next, project: cfg.GoogleCloudProject, enabled: cfg.OtelEnabled}
}

// Handle はトレース情報を付与してから下位のハンドラに渡す。
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.enabled {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(h.traceAttrs(sc)...)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) traceAttrs(sc trace.SpanContext) []slog.Attr {
	traceID := sc.TraceID().String()
	spanID := sc.SpanID().String()
	attrs := []slog.Attr{
		slog.String("trace", traceID),
		slog.String("spanId", spanID),
		slog.Bool("traceSampled", sc.IsSampled()),
	}
	if h.project != "" {
		attrs = append(attrs,
			slog.String("logging.googleapis.com/trace", "projects/"+h.project+"/traces/"+traceID),
			slog.String("logging.googleapis.com/spanId", spanID),
		)
	}
	return attrs
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs), project: h.project, enabled: h.enabled}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name), project: h.project, enabled: h.enabled}
}

// NewLogger はサービス名とトレース情報を付与するJSONロガーを生成する。
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger := slog.New(NewTraceHandler(jsonHandler, cfg))
	if cfg.OtelServiceName != "" {
		logger = logger.With("service", cfg.OtelServiceName)
	}
	return logger
}

// SetupLogger はグローバルロガーを標準出力向けに設定する。
func SetupLogger(cfg *config.Config) {
	slog.SetDefault(NewLogger(os.Stdout, cfg))
}
