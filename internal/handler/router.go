package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"activation-key-service/config"
	"activation-key-service/internal/middleware"
	"activation-key-service/internal/usecase"
)

// Handlers はルーターに登録するハンドラの集合。
type Handlers struct {
	Keys   *KeyHandler
	Admins *AdminHandler
	System *SystemHandler
}

// NewRouter はルーターを生成する。
// ブラックリスト判定は全ルートに、管理者判定は特権ルートにのみ適用する。
func NewRouter(h Handlers, access *usecase.AccessService, audit *middleware.AuditLogger, cfg *config.Config, recorder middleware.RequestRecorder) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(recorder))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Blacklist(access, audit))

	// ルート定義
	r.Get("/", h.System.Home)
	r.Get("/healthz", h.System.Health)
	r.Get("/metrics", h.System.Metrics)

	r.Post("/activate", h.Keys.ActivateKey)
	r.Post("/deactivate", h.Keys.DeactivateKey)
	r.Get("/check/{key}", h.Keys.CheckKey)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(access, audit))

		r.Get("/allkeys", h.Keys.ListKeys)
		r.Post("/create", h.Keys.CreateKey)
		r.Post("/provision", h.Keys.ProvisionKey)
		r.Delete("/delkey", h.Keys.DeleteKey)

		r.Post("/setadmin", h.Admins.SetAdmin)
		r.Get("/alladmin", h.Admins.ListAdmins)
	})

	return r
}
