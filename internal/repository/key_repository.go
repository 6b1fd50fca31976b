// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"activation-key-service/internal/domain"
)

// maxUpdateAttempts は楽観ロック競合時の再試行回数の上限。
const maxUpdateAttempts = 5

// ActivationKeyModel はgorm用のモデル定義。
type ActivationKeyModel struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"`
	Digest         string     `gorm:"column:key_digest;type:char(64);not null;uniqueIndex:uk_key_digest"`
	Status         string     `gorm:"type:varchar(16);not null;default:'created'"`
	ActivationDate *time.Time `gorm:"column:activation_date"`
	ExpirationDate *time.Time `gorm:"column:expiration_date"`
	Version        uint       `gorm:"not null;default:1"`
	CreatedAt      time.Time  `gorm:"not null;autoCreateTime"`
}

// TableName はテーブル名を返す。
func (ActivationKeyModel) TableName() string {
	return "activation_keys"
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *ActivationKeyModel) toDomain() *domain.ActivationKey {
	return &domain.ActivationKey{
		ID:          m.ID,
		Digest:      m.Digest,
		State:       domain.KeyState(m.Status),
		ActivatedAt: utcPtr(m.ActivationDate),
		ExpiresAt:   utcPtr(m.ExpirationDate),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// KeyRepository はアクティベーションキーのデータアクセスを提供する。
type KeyRepository struct {
	db *gorm.DB
}

// NewKeyRepository は新しいKeyRepositoryを生成する。
func NewKeyRepository(db *gorm.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

// Create は作成直後の状態で鍵を登録する。同じダイジェストが既に存在する場合は ErrKeyAlreadyExists を返す。
func (r *KeyRepository) Create(ctx context.Context, digest string) (*domain.ActivationKey, error) {
	model := &ActivationKeyModel{
		Digest:  digest,
		Status:  string(domain.KeyStateCreated),
		Version: 1,
	}
	// 一意制約違反を挿入0件として扱い、存在確認と挿入の間の競合を避ける
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if res.Error != nil {
		slog.ErrorContext(ctx, "failed to create key",
			"operation", "create",
			"digest", domain.ShortDigest(digest),
			"error", res.Error,
		)
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrKeyAlreadyExists
	}
	return model.toDomain(), nil
}

// FindByDigest は指定されたダイジェストの鍵を取得する。存在しない場合は nil を返す。
func (r *KeyRepository) FindByDigest(ctx context.Context, digest string) (*domain.ActivationKey, error) {
	model, err := r.findModel(ctx, digest)
	if err != nil || model == nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *KeyRepository) findModel(ctx context.Context, digest string) (*ActivationKeyModel, error) {
	var model ActivationKeyModel
	err := r.db.WithContext(ctx).
		Where("key_digest = ?", digest).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find key",
			"operation", "find_by_digest",
			"digest", domain.ShortDigest(digest),
			"error", err,
		)
		return nil, err
	}
	return &model, nil
}

// Update は鍵を読み込み、mutate を適用し、変更があればバージョン一致を条件に書き戻す。
//
// mutate は読み込んだ最新状態に対して呼ばれ、変更した場合に true を返す。
// 他のリクエストが先に書き込んだ場合（バージョン不一致）は最新状態を読み直して
// mutate を再実行するため、同一鍵への遷移は直列化される。mutate がエラーを返した場合は
// 書き込まずにそのエラーを返す。
func (r *KeyRepository) Update(ctx context.Context, digest string, mutate func(*domain.ActivationKey) (bool, error)) (*domain.ActivationKey, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		model, err := r.findModel(ctx, digest)
		if err != nil {
			return nil, err
		}
		if model == nil {
			return nil, domain.ErrKeyNotFound
		}

		key := model.toDomain()
		changed, err := mutate(key)
		if err != nil {
			return key, err
		}
		if !changed {
			return key, nil
		}

		res := r.db.WithContext(ctx).
			Model(&ActivationKeyModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version).
			Updates(map[string]interface{}{
				"status":          string(key.State),
				"activation_date": key.ActivatedAt,
				"expiration_date": key.ExpiresAt,
				"version":         model.Version + 1,
			})
		if res.Error != nil {
			slog.ErrorContext(ctx, "failed to update key",
				"operation", "update",
				"digest", domain.ShortDigest(digest),
				"status", key.State,
				"error", res.Error,
			)
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			key.Version = model.Version + 1
			return key, nil
		}

		slog.DebugContext(ctx, "key version conflict, retrying",
			"operation", "update",
			"digest", domain.ShortDigest(digest),
			"attempt", attempt+1,
		)
	}
	return nil, domain.ErrConcurrentUpdate
}

// Delete は指定されたダイジェストの鍵を削除する。
func (r *KeyRepository) Delete(ctx context.Context, digest string) error {
	res := r.db.WithContext(ctx).
		Where("key_digest = ?", digest).
		Delete(&ActivationKeyModel{})
	if res.Error != nil {
		slog.ErrorContext(ctx, "failed to delete key",
			"operation", "delete",
			"digest", domain.ShortDigest(digest),
			"error", res.Error,
		)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}

// FindAll は全ての鍵を作成順に取得する。
func (r *KeyRepository) FindAll(ctx context.Context) ([]*domain.ActivationKey, error) {
	var models []ActivationKeyModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		slog.ErrorContext(ctx, "failed to find all keys",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}

	keys := make([]*domain.ActivationKey, len(models))
	for i := range models {
		keys[i] = models[i].toDomain()
	}
	return keys, nil
}
