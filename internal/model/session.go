package model

import "time"

// Session は認証済みユーザーのセッションを表す。
// ベアラートークンをデコードして復元する。全フィールドが揃っているか、存在しないかのどちらか。
type Session struct {
	UserID   string
	Email    string
	FullName string
	Username string
	Name     string
	Token    string
}

// BrowserSession はブラウザごとに永続化されたベアラートークンを表す。
// IDはsession_id Cookieの値と一致する。
type BrowserSession struct {
	ID        string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PendingSignup はサインアップフォームからOTP検証ステップへ引き継ぐ一時データ。
// プロセスメモリ上にのみ保持し、永続化しない。
type PendingSignup struct {
	Email       string
	Password    string
	FullName    string
	Username    string
	RedirectURL string
	CreatedAt   time.Time
}
