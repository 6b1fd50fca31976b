package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"activation-key-service/internal/domain"
	"activation-key-service/pkg/httputil"
)

// Blocklist はブラックリスト判定のインターフェース。
type Blocklist interface {
	IsBlacklisted(ctx context.Context, ip string) (bool, error)
}

// Authorizer は管理者判定のインターフェース。
type Authorizer interface {
	IsAdmin(ctx context.Context, caller domain.Caller) (bool, error)
}

// CallerFromRequest はリクエストから呼び出し元の識別情報を取り出す。
// IPは RemoteAddr から取る。プロキシヘッダーを信頼する場合は前段で chi の RealIP を使う。
func CallerFromRequest(r *http.Request) domain.Caller {
	return domain.Caller{
		IP:    remoteIP(r.RemoteAddr),
		Token: bearerToken(r.Header.Get("Authorization")),
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	if ip == nil {
		return ""
	}
	return ip.String()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Blacklist はブラックリストに登録されたIPからのリクエストを全て拒否し、監査ログに記録する。
func Blacklist(blocklist Blocklist, audit *AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := remoteIP(r.RemoteAddr)

			blocked, err := blocklist.IsBlacklisted(ctx, ip)
			if err != nil {
				slog.ErrorContext(ctx, "failed to check blacklist", "error", err)
				httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				return
			}
			if blocked {
				audit.Write(ctx, "blacklist", ip, ResultDenied)
				httputil.Error(w, http.StatusForbidden, "BLACKLISTED", "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin は管理者権限を持たない呼び出し元を拒否し、監査ログに記録する。
func RequireAdmin(authz Authorizer, audit *AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := CallerFromRequest(r)

			ok, err := authz.IsAdmin(ctx, caller)
			if err != nil {
				slog.ErrorContext(ctx, "failed to check admin", "error", err)
				httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				return
			}
			if !ok {
				audit.Write(ctx, "admin", caller.IP, ResultDenied)
				httputil.Error(w, http.StatusForbidden, "UNAUTHORIZED", "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
