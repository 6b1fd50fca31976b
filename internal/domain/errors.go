package domain

import "errors"

var (
	// ErrKeyNotFound は指定されたダイジェストの鍵が存在しない場合のエラー。
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyAlreadyExists は同じダイジェストの鍵が既に登録されている場合のエラー。
	ErrKeyAlreadyExists = errors.New("key already exists")

	// ErrKeyAlreadyActive は鍵が既に有効化されている場合のエラー。
	ErrKeyAlreadyActive = errors.New("key already activated")

	// ErrKeyAlreadyInactive は鍵が既に無効な場合のエラー。
	ErrKeyAlreadyInactive = errors.New("key is already inactive")

	// ErrKeyExpired は有効性チェック中に期限切れを検出し、鍵を無効化した場合のエラー。
	ErrKeyExpired = errors.New("key expired")

	// ErrKeyNotProvisioned はプロビジョニング必須ポリシー下で未プロビジョニングの鍵を有効化しようとした場合のエラー。
	ErrKeyNotProvisioned = errors.New("key is not provisioned")

	// ErrKeyAlreadyProvisioned は作成直後以外の鍵をプロビジョニングしようとした場合のエラー。
	ErrKeyAlreadyProvisioned = errors.New("key is already provisioned")

	// ErrInvalidDuration は期間トークンの形式が不正な場合のエラー。
	ErrInvalidDuration = errors.New("invalid duration format")

	// ErrConcurrentUpdate は楽観ロックの再試行上限に達した場合のエラー。
	ErrConcurrentUpdate = errors.New("concurrent update on key")

	// ErrAdminAlreadyExists はIPが既に管理者として登録されている場合のエラー。
	ErrAdminAlreadyExists = errors.New("IP address is already an admin")

	// ErrAdminNotFound はIPが管理者として登録されていない場合のエラー。
	ErrAdminNotFound = errors.New("admin not found")

	// ErrIPAlreadyBlacklisted はIPが既にブラックリストに登録されている場合のエラー。
	ErrIPAlreadyBlacklisted = errors.New("IP address is already blacklisted")

	// ErrIPNotBlacklisted はIPがブラックリストに登録されていない場合のエラー。
	ErrIPNotBlacklisted = errors.New("IP address is not blacklisted")

	// ErrInvalidIP はIPアドレスの形式が不正な場合のエラー。
	ErrInvalidIP = errors.New("invalid IP address")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrMigrationFileNotFound はマイグレーションファイルが見つからない場合のエラー。
	ErrMigrationFileNotFound = errors.New("migration file not found")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
