package main

import (
	"fmt"

	"gorm.io/gorm"

	"activation-key-service/config"
	"activation-key-service/internal/infra"
	"activation-key-service/internal/repository"
	"activation-key-service/internal/usecase"
)

// openDB はサーバーと同じ環境変数（DATABASE_DRIVER, DATABASE_URL）でデータベースに接続する。
func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := infra.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// openAccessService はAPIを経由せずに管理者とブラックリストを操作するためのサービスを返す。
func openAccessService() (*usecase.AccessService, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	return usecase.NewAccessService(
		repository.NewAdminRepository(db),
		repository.NewBlacklistRepository(db),
		"",
	), nil
}
