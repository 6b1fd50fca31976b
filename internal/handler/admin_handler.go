package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"activation-key-service/internal/domain"
	"activation-key-service/internal/middleware"
	"activation-key-service/internal/usecase"
	"activation-key-service/pkg/httputil"
)

// AdminHandler は管理者レジストリのHTTPハンドラを提供する。
type AdminHandler struct {
	service *usecase.AccessService
	audit   *middleware.AuditLogger
}

// NewAdminHandler は新しいAdminHandlerを生成する。
func NewAdminHandler(service *usecase.AccessService, audit *middleware.AuditLogger) *AdminHandler {
	return &AdminHandler{service: service, audit: audit}
}

// AdminListItem は管理者一覧の要素。
type AdminListItem struct {
	ID uint   `json:"id"`
	IP string `json:"ip"`
}

// SetAdmin はIPに管理者権限を付与する。
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var req AdminRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	entry, err := h.service.GrantAdmin(r.Context(), req.IP)
	if err != nil {
		h.audit.Write(r.Context(), "grant_admin", req.IP, middleware.ResultFailure)
		switch {
		case errors.Is(err, domain.ErrAdminAlreadyExists):
			httputil.Error(w, http.StatusBadRequest, "ADMIN_ALREADY_EXISTS", "ip is already an admin")
		case errors.Is(err, domain.ErrInvalidIP):
			httputil.Error(w, http.StatusBadRequest, "INVALID_FIELD", "invalid ip")
		default:
			slog.ErrorContext(r.Context(), "failed to grant admin", "ip", req.IP, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.audit.Write(r.Context(), "grant_admin", entry.IP, middleware.ResultSuccess)
	httputil.Message(w, http.StatusCreated, "admin added successfully")
}

// ListAdmins は全ての管理者を返す。
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListAdmins(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list admins", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	items := make([]AdminListItem, len(entries))
	for i, e := range entries {
		items[i] = AdminListItem{ID: e.ID, IP: e.IP}
	}
	httputil.JSON(w, http.StatusOK, items)
}
