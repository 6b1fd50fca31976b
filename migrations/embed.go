// Package migrations はMySQL向けのスキーママイグレーションSQLを同梱する。
package migrations

import "embed"

// FS は {version}_{name}.sql 形式のマイグレーションファイル群。
//
//go:embed *.sql
var FS embed.FS
