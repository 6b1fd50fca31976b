// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"activation-key-service/internal/domain"
)

// KeyRepository はアクティベーションキーのデータアクセスのインターフェース。
type KeyRepository interface {
	Create(ctx context.Context, digest string) (*domain.ActivationKey, error)
	// Update は読み込み・判定・条件付き書き込みを1操作として行う。
	Update(ctx context.Context, digest string, mutate func(*domain.ActivationKey) (bool, error)) (*domain.ActivationKey, error)
	Delete(ctx context.Context, digest string) error
	FindAll(ctx context.Context) ([]*domain.ActivationKey, error)
}

// KeyPolicy はキーのライフサイクルに関する設定を表す。
type KeyPolicy struct {
	// RequireProvisioning が true の場合、作成直後の鍵は Provision されるまで有効化できない。
	RequireProvisioning bool
}

// KeyService はアクティベーションキーのライフサイクルを管理する。
type KeyService struct {
	repo   KeyRepository
	policy KeyPolicy
	now    func() time.Time
}

// NewKeyService は新しいKeyServiceを生成する。
func NewKeyService(repo KeyRepository, policy KeyPolicy) *KeyService {
	return &KeyService{
		repo:   repo,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateKey は平文の鍵をダイジェスト化して登録する。
func (s *KeyService) CreateKey(ctx context.Context, plaintext string) (*domain.ActivationKey, error) {
	key, err := s.repo.Create(ctx, domain.Digest(plaintext))
	if err != nil {
		if errors.Is(err, domain.ErrKeyAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("creating key: %w", err)
	}
	return key, nil
}

// ActivateKey は鍵を有効化し、失効日時を返す。
func (s *KeyService) ActivateKey(ctx context.Context, plaintext, durationToken string) (time.Time, error) {
	var expiresAt time.Time
	now := s.now()
	_, err := s.repo.Update(ctx, domain.Digest(plaintext), func(k *domain.ActivationKey) (bool, error) {
		var err error
		expiresAt, err = k.Activate(now, durationToken, s.policy.RequireProvisioning)
		return err == nil, err
	})
	if err != nil {
		return time.Time{}, wrapKeyError("activating key", err)
	}
	return expiresAt, nil
}

// DeactivateKey は有効な鍵を無効化する。
func (s *KeyService) DeactivateKey(ctx context.Context, plaintext string) error {
	_, err := s.repo.Update(ctx, domain.Digest(plaintext), func(k *domain.ActivationKey) (bool, error) {
		if err := k.Deactivate(); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return wrapKeyError("deactivating key", err)
	}
	return nil
}

// ProvisionKey は作成直後の鍵を有効化可能な状態にする。
func (s *KeyService) ProvisionKey(ctx context.Context, plaintext string) error {
	_, err := s.repo.Update(ctx, domain.Digest(plaintext), func(k *domain.ActivationKey) (bool, error) {
		if err := k.Provision(); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return wrapKeyError("provisioning key", err)
	}
	return nil
}

// CheckKey は鍵の有効性を返す。
//
// 有効期限を過ぎた有効な鍵はこの呼び出しの中で無効化され、ErrKeyExpired が返る。
// 無効化は条件付き書き込みで行うため、同じ失効について ErrKeyExpired を受け取るのは
// 1回の呼び出しだけで、以降は通常の無効状態として読まれる。
func (s *KeyService) CheckKey(ctx context.Context, plaintext string) (*domain.Validity, error) {
	var expired bool
	now := s.now()
	key, err := s.repo.Update(ctx, domain.Digest(plaintext), func(k *domain.ActivationKey) (bool, error) {
		expired = k.ExpireIfDue(now)
		return expired, nil
	})
	if err != nil {
		return nil, wrapKeyError("checking key", err)
	}

	validity := &domain.Validity{
		Active:    key.IsActive(),
		ExpiresAt: key.ExpiresAt,
	}
	if expired {
		return validity, domain.ErrKeyExpired
	}
	return validity, nil
}

// DeleteKey は鍵を完全に削除する。
func (s *KeyService) DeleteKey(ctx context.Context, plaintext string) error {
	if err := s.repo.Delete(ctx, domain.Digest(plaintext)); err != nil {
		return wrapKeyError("deleting key", err)
	}
	return nil
}

// ListKeys は全ての鍵を作成順に返す。
func (s *KeyService) ListKeys(ctx context.Context) ([]*domain.ActivationKey, error) {
	keys, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding keys: %w", err)
	}
	return keys, nil
}

// wrapKeyError はドメインエラーはそのまま返し、それ以外（ストレージ障害など）に文脈を付ける。
func wrapKeyError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrKeyNotFound),
		errors.Is(err, domain.ErrKeyAlreadyActive),
		errors.Is(err, domain.ErrKeyAlreadyInactive),
		errors.Is(err, domain.ErrKeyNotProvisioned),
		errors.Is(err, domain.ErrKeyAlreadyProvisioned),
		errors.Is(err, domain.ErrInvalidDuration):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
