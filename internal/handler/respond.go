package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/backend"
	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
)

// maxRequestBody はフォーム送信のボディ上限。
const maxRequestBody = 1 << 20

// responder はハンドラー共通のレスポンス処理。
type responder struct {
	session middleware.SessionConfig
	logger  *slog.Logger
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON はリクエストボディをJSONとして読み込む。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
}

// redirectToSignIn はセッションCookieを削除して/signinへ遷移させる。
// バックエンドの401を受けたリクエストは、同じリクエスト内でこのレスポンスになる。
func (rs responder) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, rs.session)
	http.Redirect(w, r, middleware.SignInPath, http.StatusSeeOther)
}

// backendError はバックエンド呼び出しのエラーをHTTPレスポンスに変換する。
//   - 401: 強制ログアウト済みのため/signinへ303
//   - 404: 404
//   - その他の4xx: 同じステータスでバックエンドのメッセージ
//   - 5xx・通信失敗: 502でfallbackメッセージ
func (rs responder) backendError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, backend.ErrUnauthorized) {
		rs.redirectToSignIn(w, r)
		return
	}
	if errors.Is(err, context.Canceled) {
		// クライアントが離脱済み
		rs.logger.Info("request cancelled", slog.String("path", r.URL.Path))
		return
	}

	var be *backend.Error
	if errors.As(err, &be) {
		switch {
		case be.StatusCode == http.StatusNotFound:
			middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
				Code:     model.ErrCodeNotFound,
				Message:  backend.MessageOf(err, fallback),
				Category: "backend",
				Action:   "Check the identifier.",
			})
			return
		case be.StatusCode >= 400 && be.StatusCode < 500:
			middleware.WriteErrorResponse(w, be.StatusCode, model.NewBackendError(backend.MessageOf(err, fallback)))
			return
		}
	}

	rs.logger.Error("backend request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewBackendError(fallback))
}

// sessionEmail はサインイン中のメールアドレスを返す。セッションがない場合は空文字列。
func sessionEmail(r *http.Request) string {
	if session, ok := currentSession(r); ok {
		return session.Email
	}
	return ""
}

// currentSession はリクエストのセッションを返す。ガードの内側でのみ呼ぶ。
func currentSession(r *http.Request) (model.Session, bool) {
	store := storeOf(r)
	if store == nil {
		return model.Session{}, false
	}
	return store.Session()
}
