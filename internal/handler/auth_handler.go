// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/backend"
	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
)

// AuthHandler はサインイン・ログアウト・現在のユーザー取得のHTTPハンドラー。
// セッションの操作はリクエストコンテキストのStoreを介して行う。
type AuthHandler struct {
	responder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(session middleware.SessionConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder: responder{session: session, logger: logger},
	}
}

// signInRequest はサインインフォームの入力値。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// meResponse は現在のユーザー情報のAPIレスポンス。
type meResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// SignIn はメールアドレスとパスワードでサインインする。
// POST /auth/signin?redirect=/projects/1
// 成功時はsession_id Cookieを設定し、redirectパラメータ（なければ/dashboard）へ303で遷移する。
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	store := storeOf(r)
	if store == nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if err := store.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.writeSignInError(w, store, err)
		return
	}

	middleware.SetSessionCookie(w, h.session, store.BrowserID())
	target := security.SafeRedirect(r.URL.Query().Get("redirect"), middleware.DashboardPath)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AuthHandler) writeSignInError(w http.ResponseWriter, store *auth.Store, err error) {
	if errors.Is(err, auth.ErrMissingFields) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	// 認証情報の誤りは401、通信失敗やトークン欠落は502
	status := http.StatusBadGateway
	var be *backend.Error
	if errors.As(err, &be) && be.StatusCode < 500 {
		status = http.StatusUnauthorized
	}
	if status == http.StatusBadGateway {
		h.logger.Warn("sign in failed", slog.String("error", err.Error()))
	}
	middleware.WriteErrorResponse(w, status, model.NewSignInFailedError(store.LastError()))
}

// Logout はセッションと永続化トークンを破棄する。
// POST /auth/logout
// 以前の状態に関わらず、Cookieを削除して/signinへ303で遷移する。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if store := storeOf(r); store != nil {
		store.Logout(r.Context())
	}
	h.redirectToSignIn(w, r)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	store := storeOf(r)
	if store == nil {
		middleware.WriteLoading(w)
		return
	}

	switch st := store.State().(type) {
	case auth.Loading:
		middleware.WriteLoading(w)
	case auth.Anonymous:
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	case auth.Authenticated:
		writeJSON(w, http.StatusOK, toMeResponse(st.Session))
	}
}

// storeOf はリクエストコンテキストのStoreを返す。
func storeOf(r *http.Request) *auth.Store {
	return auth.StoreFrom(r.Context())
}
