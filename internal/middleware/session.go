// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/backend"
)

// SessionCookieName はブラウザセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// StoreFactory はブラウザセッションIDからStoreを生成する。
// auth.Managerが実装する。
type StoreFactory interface {
	NewStore(browserID string) *auth.Store
}

// SessionConfig はセッションCookieの設定。
type SessionConfig struct {
	CookieSecure bool
	CookieDomain string
	MaxAge       int // 秒
}

// NewSessionLoader はsession_id CookieからStoreを生成・復元し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 復元に失敗した場合もリクエストは継続し、StoreはLoadingのまま残る（判定はガードが行う）。
// Storeはバックエンド呼び出しの認証情報としてもコンテキストに格納する。
func NewSessionLoader(factory StoreFactory, config SessionConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからブラウザセッションIDを取得
			var browserID string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				browserID = cookie.Value
			}

			// 2. 永続化トークンからセッションを復元
			store := factory.NewStore(browserID)
			if err := store.Restore(r.Context()); err != nil {
				logger.Error("セッションの復元に失敗しました",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
			} else if browserID != "" && store.BrowserID() == "" {
				// 行が存在しないか破棄されたためCookieも消す
				ClearSessionCookie(w, config)
			}

			// 3. Storeをコンテキストに注入
			ctx := auth.WithStore(r.Context(), store)
			ctx = backend.WithCredentials(ctx, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie はsession_id Cookieを設定する。
func SetSessionCookie(w http.ResponseWriter, config SessionConfig, browserID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    browserID,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   config.MaxAge,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie はsession_id Cookieを削除する。
func ClearSessionCookie(w http.ResponseWriter, config SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserIDFromContext はリクエストコンテキストのStoreから認証済みユーザーIDを取得する。
// セッションローダーを通過し、かつAuthenticatedのリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	store := auth.StoreFrom(ctx)
	if store == nil {
		return "", fmt.Errorf("session store not found in context")
	}
	session, ok := store.Session()
	if !ok || session.UserID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return session.UserID, nil
}
