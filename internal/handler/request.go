// Package handler はHTTPハンドラを提供する。
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"activation-key-service/pkg/httputil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// KeyRequest は鍵のみを受け取るリクエストの形式。
type KeyRequest struct {
	Key string `json:"key" validate:"required"`
}

// ActivateRequest は有効化リクエストの形式。
type ActivateRequest struct {
	Key      string `json:"key" validate:"required"`
	Duration string `json:"duration" validate:"required"`
}

// AdminRequest は管理者登録リクエストの形式。
type AdminRequest struct {
	IP string `json:"ip" validate:"required,ip"`
}

// decodeRequest はJSONボディをデコードして検証する。失敗時は400を書き込み false を返す。
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil && !errors.Is(err, io.EOF) {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httputil.Error(w, http.StatusBadRequest, validationCode(err), validationMessage(err))
		return false
	}
	return true
}

func validationCode(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() != "required" {
		return "INVALID_FIELD"
	}
	return "MISSING_FIELD"
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Tag() != "required" {
			return fmt.Sprintf("invalid %s", field)
		}
		missing = append(missing, field)
	}
	return "missing " + strings.Join(missing, " or ")
}

// formatTime はUTCのRFC3339文字列を返す。nil の場合は nil。
func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
