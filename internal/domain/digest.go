package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestLength はダイジェスト文字列の長さ（SHA-256の16進表現）。
const DigestLength = sha256.Size * 2

// Digest は平文の鍵を保存・検索用の固定長ダイジェストに変換する。
// 平文は永続化もログ出力もされず、このダイジェストのみが識別子として使われる。
func Digest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// ShortDigest はログ出力用にダイジェストの先頭12文字を返す。
func ShortDigest(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
