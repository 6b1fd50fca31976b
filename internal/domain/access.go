package domain

import "time"

// Caller はリクエスト元の識別情報を表す。
type Caller struct {
	IP    string
	Token string // Authorization: Bearer で渡されたトークン（無い場合は空）
}

// AdminEntry は管理者権限を持つIPを表す。
type AdminEntry struct {
	ID        uint
	IP        string
	CreatedAt time.Time
}

// BlacklistEntry は全リクエストを拒否するIPを表す。
type BlacklistEntry struct {
	ID        uint
	IP        string
	CreatedAt time.Time
}
