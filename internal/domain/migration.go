package domain

import "time"

// MigrationStatus はスキーママイグレーションの適用状態を表す。
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// Migration は migrations ディレクトリ内の1つのSQLファイルを表す。
type Migration struct {
	Version   string          // 例: "001"
	Name      string          // 例: "create_activation_keys"
	AppliedAt *time.Time      // 未適用の場合はnil
	FilePath  string
	Status    MigrationStatus
}

// IsApplied は適用済みかどうかを返す。
func (m *Migration) IsApplied() bool {
	return m.Status == MigrationStatusApplied
}
