// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// KeyState はアクティベーションキーの状態を表す。
type KeyState string

const (
	// KeyStateCreated は作成直後でまだ一度も有効化されていない状態。
	KeyStateCreated KeyState = "created"
	// KeyStateActive は有効化済みで有効期限内の状態。
	KeyStateActive KeyState = "active"
	// KeyStateInactive は無効化された、または期限切れを検出された状態。
	KeyStateInactive KeyState = "inactive"
)

// ActivationKey はアクティベーションキーエンティティを表す。
// ActivatedAt と ExpiresAt は State が Active のときのみ設定される。
type ActivationKey struct {
	ID          uint
	Digest      string
	State       KeyState
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
	Version     uint
	CreatedAt   time.Time
}

// IsActive は鍵が有効状態かどうかを返す。
func (k *ActivationKey) IsActive() bool {
	return k.State == KeyStateActive
}

// Activate は鍵を有効化し、失効日時を返す。
// requireProvisioned が true の場合、作成直後の鍵は有効化できない。
func (k *ActivationKey) Activate(now time.Time, token string, requireProvisioned bool) (time.Time, error) {
	if k.State == KeyStateActive {
		return time.Time{}, ErrKeyAlreadyActive
	}
	if requireProvisioned && k.State == KeyStateCreated {
		return time.Time{}, ErrKeyNotProvisioned
	}

	d, err := ParseDuration(token)
	if err != nil {
		return time.Time{}, err
	}

	activatedAt := now.UTC()
	expiresAt := d.ExpiresAt(activatedAt)
	k.State = KeyStateActive
	k.ActivatedAt = &activatedAt
	k.ExpiresAt = &expiresAt
	return expiresAt, nil
}

// Deactivate は有効な鍵を無効化する。
func (k *ActivationKey) Deactivate() error {
	if k.State != KeyStateActive {
		return ErrKeyAlreadyInactive
	}
	k.clear()
	return nil
}

// ExpireIfDue は失効日時を過ぎていれば鍵を無効化し、true を返す。
func (k *ActivationKey) ExpireIfDue(now time.Time) bool {
	if k.State != KeyStateActive || k.ExpiresAt == nil {
		return false
	}
	if !now.After(*k.ExpiresAt) {
		return false
	}
	k.clear()
	return true
}

// Provision は作成直後の鍵を有効化可能な状態へ進める。
func (k *ActivationKey) Provision() error {
	if k.State != KeyStateCreated {
		return ErrKeyAlreadyProvisioned
	}
	k.State = KeyStateInactive
	return nil
}

func (k *ActivationKey) clear() {
	k.State = KeyStateInactive
	k.ActivatedAt = nil
	k.ExpiresAt = nil
}

// Validity は有効性チェックの結果を表す。
type Validity struct {
	Active    bool
	ExpiresAt *time.Time
}
