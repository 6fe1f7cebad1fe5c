// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptでハッシュ化された値のみを保持し、
// 平文パスワードは決して保存・ログ出力しない。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	ZipCode      string
	TotalPoints  int
	RegisteredAt time.Time
}

// Session はユーザーのログインセッションを表す。
// IDはサーバー発行の推測不能なトークン（32バイトのランダム値のhex表現）。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TimestampLayout は外部公開するタイムスタンプの表示フォーマット。
// プロフィールの登録日時と問題の報告日時に共通で適用する。
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp はタイムスタンプを統一フォーマット（UTC）で整形する。
// ゼロ値の場合は空文字列を返す（未設定扱い）。
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}
