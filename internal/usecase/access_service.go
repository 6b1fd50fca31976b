package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"activation-key-service/internal/domain"
)

// AdminRepository は管理者IPレジストリのインターフェース。
type AdminRepository interface {
	Exists(ctx context.Context, ip string) (bool, error)
	Create(ctx context.Context, ip string) (*domain.AdminEntry, error)
	Delete(ctx context.Context, ip string) error
	FindAll(ctx context.Context) ([]*domain.AdminEntry, error)
}

// BlacklistRepository はブラックリストのインターフェース。
type BlacklistRepository interface {
	Exists(ctx context.Context, ip string) (bool, error)
	Create(ctx context.Context, ip string) (*domain.BlacklistEntry, error)
	Delete(ctx context.Context, ip string) error
	FindAll(ctx context.Context) ([]*domain.BlacklistEntry, error)
}

// AccessService は管理者権限とブラックリストの判定、および両レジストリの更新を提供する。
type AccessService struct {
	admins     AdminRepository
	blacklist  BlacklistRepository
	adminToken string
}

// NewAccessService は新しいAccessServiceを生成する。
// adminToken が空でなければ、Bearerトークンが一致する呼び出し元も管理者として扱う。
func NewAccessService(admins AdminRepository, blacklist BlacklistRepository, adminToken string) *AccessService {
	return &AccessService{
		admins:     admins,
		blacklist:  blacklist,
		adminToken: adminToken,
	}
}

// IsAdmin は呼び出し元が管理者権限を持つか判定する。
func (s *AccessService) IsAdmin(ctx context.Context, caller domain.Caller) (bool, error) {
	if s.adminToken != "" && caller.Token != "" &&
		subtle.ConstantTimeCompare([]byte(caller.Token), []byte(s.adminToken)) == 1 {
		return true, nil
	}
	if caller.IP == "" {
		return false, nil
	}
	ok, err := s.admins.Exists(ctx, caller.IP)
	if err != nil {
		return false, fmt.Errorf("checking admin: %w", err)
	}
	return ok, nil
}

// IsBlacklisted はIPがブラックリストに登録されているか判定する。
func (s *AccessService) IsBlacklisted(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	ok, err := s.blacklist.Exists(ctx, ip)
	if err != nil {
		return false, fmt.Errorf("checking blacklist: %w", err)
	}
	return ok, nil
}

// GrantAdmin はIPに管理者権限を付与する。
func (s *AccessService) GrantAdmin(ctx context.Context, ip string) (*domain.AdminEntry, error) {
	ip, err := normalizeIP(ip)
	if err != nil {
		return nil, err
	}
	entry, err := s.admins.Create(ctx, ip)
	if err != nil {
		if errors.Is(err, domain.ErrAdminAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("granting admin: %w", err)
	}
	return entry, nil
}

// RevokeAdmin はIPの管理者権限を取り消す。
func (s *AccessService) RevokeAdmin(ctx context.Context, ip string) error {
	ip, err := normalizeIP(ip)
	if err != nil {
		return err
	}
	if err := s.admins.Delete(ctx, ip); err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return err
		}
		return fmt.Errorf("revoking admin: %w", err)
	}
	return nil
}

// ListAdmins は全ての管理者を返す。
func (s *AccessService) ListAdmins(ctx context.Context) ([]*domain.AdminEntry, error) {
	entries, err := s.admins.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding admins: %w", err)
	}
	return entries, nil
}

// BootstrapAdmins は起動時に設定された管理者IPを登録する。登録済みのIPは無視する。
func (s *AccessService) BootstrapAdmins(ctx context.Context, ips []string) error {
	for _, ip := range ips {
		entry, err := s.GrantAdmin(ctx, ip)
		if errors.Is(err, domain.ErrAdminAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("bootstrapping admin %q: %w", ip, err)
		}
		slog.InfoContext(ctx, "bootstrap admin registered", "ip", entry.IP)
	}
	return nil
}

// BlockIP はIPをブラックリストに登録する。
func (s *AccessService) BlockIP(ctx context.Context, ip string) (*domain.BlacklistEntry, error) {
	ip, err := normalizeIP(ip)
	if err != nil {
		return nil, err
	}
	entry, err := s.blacklist.Create(ctx, ip)
	if err != nil {
		if errors.Is(err, domain.ErrIPAlreadyBlacklisted) {
			return nil, err
		}
		return nil, fmt.Errorf("blocking ip: %w", err)
	}
	return entry, nil
}

// UnblockIP はIPをブラックリストから削除する。
func (s *AccessService) UnblockIP(ctx context.Context, ip string) error {
	ip, err := normalizeIP(ip)
	if err != nil {
		return err
	}
	if err := s.blacklist.Delete(ctx, ip); err != nil {
		if errors.Is(err, domain.ErrIPNotBlacklisted) {
			return err
		}
		return fmt.Errorf("unblocking ip: %w", err)
	}
	return nil
}

// ListBlocked は全てのブラックリスト登録を返す。
func (s *AccessService) ListBlocked(ctx context.Context) ([]*domain.BlacklistEntry, error) {
	entries, err := s.blacklist.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding blacklist: %w", err)
	}
	return entries, nil
}

// normalizeIP はIPアドレスを検証し正規形に揃える。
// 照合は文字列の完全一致のため、"::ffff:10.0.0.1" のような表記揺れをここで吸収する。
func normalizeIP(ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidIP, ip)
	}
	return parsed.String(), nil
}
