package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"activation-key-service/internal/domain"
	"activation-key-service/internal/middleware"
	"activation-key-service/internal/usecase"
	"activation-key-service/pkg/httputil"
)

// KeyHandler はアクティベーションキーのHTTPハンドラを提供する。
type KeyHandler struct {
	service *usecase.KeyService
	audit   *middleware.AuditLogger
}

// NewKeyHandler は新しいKeyHandlerを生成する。
func NewKeyHandler(service *usecase.KeyService, audit *middleware.AuditLogger) *KeyHandler {
	return &KeyHandler{service: service, audit: audit}
}

// ActivateResponse は有効化のレスポンス形式。
type ActivateResponse struct {
	Message   string `json:"message"`
	ExpiresAt string `json:"expires_at"`
}

// CheckResponse は有効性チェックのレスポンス形式。
type CheckResponse struct {
	IsActive  bool    `json:"is_active"`
	ExpiresAt *string `json:"expires_at"`
}

// KeyListItem は鍵一覧の要素。key には平文ではなくダイジェストが入る。
type KeyListItem struct {
	ID             uint    `json:"id"`
	Key            string  `json:"key"`
	IsActive       bool    `json:"is_active"`
	ActivationDate *string `json:"activation_date"`
	ExpirationDate *string `json:"expiration_date"`
}

// keyErrorMapping はドメインエラーとHTTPレスポンスの対応。
var keyErrorMapping = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{domain.ErrKeyNotFound, http.StatusNotFound, "KEY_NOT_FOUND", "invalid key"},
	{domain.ErrKeyAlreadyExists, http.StatusBadRequest, "KEY_ALREADY_EXISTS", "key already exists"},
	{domain.ErrKeyAlreadyActive, http.StatusBadRequest, "KEY_ALREADY_ACTIVE", "key already activated"},
	{domain.ErrKeyAlreadyInactive, http.StatusBadRequest, "KEY_ALREADY_INACTIVE", "key is already inactive"},
	{domain.ErrInvalidDuration, http.StatusBadRequest, "INVALID_DURATION", "invalid duration format"},
	{domain.ErrKeyNotProvisioned, http.StatusBadRequest, "KEY_NOT_PROVISIONED", "key has not been provisioned"},
	{domain.ErrKeyAlreadyProvisioned, http.StatusBadRequest, "KEY_ALREADY_PROVISIONED", "key is already provisioned"},
	{domain.ErrKeyExpired, http.StatusForbidden, "KEY_EXPIRED", "key expired"},
	{domain.ErrConcurrentUpdate, http.StatusConflict, "CONCURRENT_UPDATE", "key was modified concurrently, retry"},
}

// writeKeyError はエラーを監査ログに残してレスポンスに変換する。
func (h *KeyHandler) writeKeyError(w http.ResponseWriter, r *http.Request, operation, subject string, err error) {
	for _, m := range keyErrorMapping {
		if errors.Is(err, m.err) {
			result := middleware.ResultFailure
			if m.err == domain.ErrKeyExpired {
				result = middleware.ResultExpired
			}
			h.audit.Write(r.Context(), operation, subject, result)
			httputil.Error(w, m.status, m.code, m.message)
			return
		}
	}
	slog.ErrorContext(r.Context(), "key operation failed",
		"operation", operation,
		"subject", subject,
		"error", err,
	)
	h.audit.Write(r.Context(), operation, subject, middleware.ResultFailure)
	httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// subjectOf は監査ログに記録する鍵の識別子を返す。
func subjectOf(plaintext string) string {
	return domain.ShortDigest(domain.Digest(plaintext))
}

// CreateKey は鍵を登録する。
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	subject := subjectOf(req.Key)

	if _, err := h.service.CreateKey(r.Context(), req.Key); err != nil {
		h.writeKeyError(w, r, "create", subject, err)
		return
	}

	h.audit.Write(r.Context(), "create", subject, middleware.ResultSuccess)
	httputil.Message(w, http.StatusCreated, "key created successfully")
}

// ActivateKey は鍵を有効化する。
func (h *KeyHandler) ActivateKey(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	subject := subjectOf(req.Key)

	expiresAt, err := h.service.ActivateKey(r.Context(), req.Key, req.Duration)
	if err != nil {
		h.writeKeyError(w, r, "activate", subject, err)
		return
	}

	h.audit.Write(r.Context(), "activate", subject, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, ActivateResponse{
		Message:   "key activated successfully",
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// DeactivateKey は鍵を無効化する。
func (h *KeyHandler) DeactivateKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	subject := subjectOf(req.Key)

	if err := h.service.DeactivateKey(r.Context(), req.Key); err != nil {
		h.writeKeyError(w, r, "deactivate", subject, err)
		return
	}

	h.audit.Write(r.Context(), "deactivate", subject, middleware.ResultSuccess)
	httputil.Message(w, http.StatusOK, "key deactivated successfully")
}

// ProvisionKey は作成直後の鍵を有効化可能にする。
func (h *KeyHandler) ProvisionKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	subject := subjectOf(req.Key)

	if err := h.service.ProvisionKey(r.Context(), req.Key); err != nil {
		h.writeKeyError(w, r, "provision", subject, err)
		return
	}

	h.audit.Write(r.Context(), "provision", subject, middleware.ResultSuccess)
	httputil.Message(w, http.StatusOK, "key provisioned successfully")
}

// CheckKey は鍵の有効性を返す。期限切れを検出した場合は403を返す。
func (h *KeyHandler) CheckKey(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromPath(r)
	if err != nil || key == "" {
		httputil.Error(w, http.StatusBadRequest, "MISSING_FIELD", "missing key")
		return
	}
	subject := subjectOf(key)

	validity, err := h.service.CheckKey(r.Context(), key)
	if err != nil {
		h.writeKeyError(w, r, "check", subject, err)
		return
	}

	httputil.JSON(w, http.StatusOK, CheckResponse{
		IsActive:  validity.Active,
		ExpiresAt: formatTime(validity.ExpiresAt),
	})
}

// DeleteKey は鍵を削除する。
func (h *KeyHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	subject := subjectOf(req.Key)

	if err := h.service.DeleteKey(r.Context(), req.Key); err != nil {
		h.writeKeyError(w, r, "delete", subject, err)
		return
	}

	h.audit.Write(r.Context(), "delete", subject, middleware.ResultSuccess)
	httputil.Message(w, http.StatusOK, "key deleted successfully")
}

// ListKeys は全ての鍵を返す。
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListKeys(r.Context())
	if err != nil {
		h.writeKeyError(w, r, "list_keys", "*", err)
		return
	}

	items := make([]KeyListItem, len(keys))
	for i, k := range keys {
		items[i] = KeyListItem{
			ID:             k.ID,
			Key:            k.Digest,
			IsActive:       k.IsActive(),
			ActivationDate: formatTime(k.ActivatedAt),
			ExpirationDate: formatTime(k.ExpiresAt),
		}
	}
	httputil.JSON(w, http.StatusOK, items)
}

// keyFromPath はパスから鍵を取り出す。
// chi は RawPath がある場合のみエスケープされたままのセグメントを返すため、その場合だけデコードする。
func keyFromPath(r *http.Request) (string, error) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key, nil
	}
	return url.PathUnescape(key)
}
