package repository

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"activation-key-service/internal/domain"
)

// AdminModel はadminsテーブルのモデル。
type AdminModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	IP        string    `gorm:"column:ip;type:varchar(45);not null;uniqueIndex:uk_admin_ip"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// TableName はテーブル名を返す。
func (AdminModel) TableName() string {
	return "admins"
}

// BlacklistedIPModel はblacklisted_ipsテーブルのモデル。
type BlacklistedIPModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	IP        string    `gorm:"column:ip;type:varchar(45);not null;uniqueIndex:uk_blacklisted_ip"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// TableName はテーブル名を返す。
func (BlacklistedIPModel) TableName() string {
	return "blacklisted_ips"
}

// AdminRepository は管理者IPレジストリのデータアクセスを提供する。
type AdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository は新しいAdminRepositoryを生成する。
func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Exists はIPが管理者として登録されているか確認する。
func (r *AdminRepository) Exists(ctx context.Context, ip string) (bool, error) {
	return existsByIP(ctx, r.db, &AdminModel{}, ip, "admin_exists")
}

// Create はIPを管理者として登録する。
func (r *AdminRepository) Create(ctx context.Context, ip string) (*domain.AdminEntry, error) {
	model := &AdminModel{IP: ip}
	inserted, err := insertIgnoringDuplicate(ctx, r.db, model, ip, "admin_create")
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, domain.ErrAdminAlreadyExists
	}
	return &domain.AdminEntry{ID: model.ID, IP: model.IP, CreatedAt: model.CreatedAt.UTC()}, nil
}

// Delete は管理者登録を削除する。
func (r *AdminRepository) Delete(ctx context.Context, ip string) error {
	deleted, err := deleteByIP(ctx, r.db, &AdminModel{}, ip, "admin_delete")
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrAdminNotFound
	}
	return nil
}

// FindAll は全ての管理者を登録順に取得する。
func (r *AdminRepository) FindAll(ctx context.Context) ([]*domain.AdminEntry, error) {
	var models []AdminModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		slog.ErrorContext(ctx, "failed to find all admins",
			"operation", "admin_find_all",
			"error", err,
		)
		return nil, err
	}

	entries := make([]*domain.AdminEntry, len(models))
	for i, m := range models {
		entries[i] = &domain.AdminEntry{ID: m.ID, IP: m.IP, CreatedAt: m.CreatedAt.UTC()}
	}
	return entries, nil
}

// BlacklistRepository はブラックリストのデータアクセスを提供する。
type BlacklistRepository struct {
	db *gorm.DB
}

// NewBlacklistRepository は新しいBlacklistRepositoryを生成する。
func NewBlacklistRepository(db *gorm.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Exists はIPがブラックリストに登録されているか確認する。
func (r *BlacklistRepository) Exists(ctx context.Context, ip string) (bool, error) {
	return existsByIP(ctx, r.db, &BlacklistedIPModel{}, ip, "blacklist_exists")
}

// Create はIPをブラックリストに登録する。
func (r *BlacklistRepository) Create(ctx context.Context, ip string) (*domain.BlacklistEntry, error) {
	model := &BlacklistedIPModel{IP: ip}
	inserted, err := insertIgnoringDuplicate(ctx, r.db, model, ip, "blacklist_create")
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, domain.ErrIPAlreadyBlacklisted
	}
	return &domain.BlacklistEntry{ID: model.ID, IP: model.IP, CreatedAt: model.CreatedAt.UTC()}, nil
}

// Delete はブラックリスト登録を削除する。
func (r *BlacklistRepository) Delete(ctx context.Context, ip string) error {
	deleted, err := deleteByIP(ctx, r.db, &BlacklistedIPModel{}, ip, "blacklist_delete")
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrIPNotBlacklisted
	}
	return nil
}

// FindAll は全てのブラックリスト登録を取得する。
func (r *BlacklistRepository) FindAll(ctx context.Context) ([]*domain.BlacklistEntry, error) {
	var models []BlacklistedIPModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		slog.ErrorContext(ctx, "failed to find all blacklisted IPs",
			"operation", "blacklist_find_all",
			"error", err,
		)
		return nil, err
	}

	entries := make([]*domain.BlacklistEntry, len(models))
	for i, m := range models {
		entries[i] = &domain.BlacklistEntry{ID: m.ID, IP: m.IP, CreatedAt: m.CreatedAt.UTC()}
	}
	return entries, nil
}

func existsByIP(ctx context.Context, db *gorm.DB, model interface{}, ip, operation string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(model).
		Where("ip = ?", ip).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to count by ip",
			"operation", operation,
			"ip", ip,
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

func insertIgnoringDuplicate(ctx context.Context, db *gorm.DB, model interface{}, ip, operation string) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if res.Error != nil {
		slog.ErrorContext(ctx, "failed to insert ip",
			"operation", operation,
			"ip", ip,
			"error", res.Error,
		)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func deleteByIP(ctx context.Context, db *gorm.DB, model interface{}, ip, operation string) (bool, error) {
	res := db.WithContext(ctx).
		Where("ip = ?", ip).
		Delete(model)
	if res.Error != nil {
		slog.ErrorContext(ctx, "failed to delete ip",
			"operation", operation,
			"ip", ip,
			"error", res.Error,
		)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
