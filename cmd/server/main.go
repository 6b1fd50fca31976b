// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"activation-key-service/config"
	"activation-key-service/internal/handler"
	"activation-key-service/internal/infra"
	"activation-key-service/internal/middleware"
	"activation-key-service/internal/repository"
	"activation-key-service/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		return err
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg)

	// DB初期化
	db, err := infra.NewDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return err
		}
		slog.Info("database schema migrated", "driver", cfg.DatabaseDriver)
	}

	// DI
	metrics := infra.NewMetrics()
	audit := middleware.NewAuditLogger(metrics)

	keyService := usecase.NewKeyService(repository.NewKeyRepository(db), usecase.KeyPolicy{
		RequireProvisioning: cfg.RequireProvisioning,
	})
	accessService := usecase.NewAccessService(
		repository.NewAdminRepository(db),
		repository.NewBlacklistRepository(db),
		cfg.AdminToken,
	)
	if err := accessService.BootstrapAdmins(ctx, cfg.BootstrapAdminIPs); err != nil {
		return err
	}

	router := handler.NewRouter(handler.Handlers{
		Keys:   handler.NewKeyHandler(keyService, audit),
		Admins: handler.NewAdminHandler(accessService, audit),
		System: handler.NewSystemHandler(sqlDB, metrics.Handler()),
	}, accessService, audit, cfg, metrics)

	var h http.Handler = router
	if cfg.OtelEnabled {
		h = otelhttp.NewHandler(router, cfg.OtelServiceName)
	}

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: h,
	}

	// Graceful shutdown
	idleClosed := make(chan struct{})
	go func() {
		defer close(idleClosed)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server",
		"addr", cfg.Addr(),
		"driver", cfg.DatabaseDriver,
		"require_provisioning", cfg.RequireProvisioning,
	)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-idleClosed
	slog.Info("server stopped")
	return nil
}
