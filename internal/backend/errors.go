package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized はベアラートークン付きのリクエストに対しバックエンドが401を返したことを示す。
// この時点でリクエストコンテキストの認証情報は既に失効処理済み。
var ErrUnauthorized = errors.New("backend: unauthorized")

// Error はバックエンドが2xx以外のステータスを返したことを表す。
// Messageはレスポンスボディのmessageフィールド、なければ呼び出しごとの既定メッセージ。
type Error struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Message)
}

// MessageOf はエラーからフォームに表示するメッセージを取り出す。
// バックエンドのエラーでない場合（通信失敗など）はfallbackを返す。
func MessageOf(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

// IsNotFound はバックエンドが404を返したかを判定する。
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.StatusCode == 404
}

// messageFromBody はエラーレスポンスボディからmessageフィールドを取り出す。
// JSONでない場合は短いプレーンテキストをそのまま使い、それ以外はfallbackを返す。
func messageFromBody(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return fallback
	}

	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return fallback
}
