package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/hitoshi/taskdeck/internal/auth"
)

const (
	// SignInPath は未認証時のリダイレクト先。
	SignInPath = "/signin"
	// DashboardPath は認証済みユーザーが匿名専用ページにアクセスした際のリダイレクト先。
	DashboardPath = "/dashboard"
)

// RequireSession は認証済みのリクエストのみを通すガード。
//   - Loading: 読み込み中レスポンス（503）
//   - Anonymous: /signin?redirect=<元のURI> へ303リダイレクト
//   - Authenticated: 次のハンドラーへ
func RequireSession() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch stateOf(r).(type) {
			case auth.Loading:
				WriteLoading(w)
			case auth.Anonymous:
				target := SignInPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
			case auth.Authenticated:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAnonymous は未認証のリクエストのみを通すガード。
//   - Loading: 読み込み中レスポンス（503）
//   - Authenticated: /dashboard へ303リダイレクト
//   - Anonymous: 次のハンドラーへ
func RequireAnonymous() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch stateOf(r).(type) {
			case auth.Loading:
				WriteLoading(w)
			case auth.Authenticated:
				http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			case auth.Anonymous:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// WriteLoading はセッション復元が完了していないことを示すプレースホルダーを書き込む。
func WriteLoading(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusServiceUnavailable)
	json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
}

// stateOf はリクエストのセッション状態を返す。
// Storeが注入されていない場合はLoadingとして扱う。
func stateOf(r *http.Request) auth.State {
	store := auth.StoreFrom(r.Context())
	if store == nil {
		return auth.Loading{}
	}
	return store.State()
}
