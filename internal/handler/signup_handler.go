package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
	"github.com/hitoshi/taskdeck/internal/signup"
)

const (
	// signupFlowCookie はサインアップ途中データのフローIDを保持するCookieの名前。
	signupFlowCookie = "signup_flow"

	signUpPath          = "/signup"
	otpVerificationPath = "/otpverification"
)

// SignupFlow はサインアップハンドラーが必要とするフロー操作。
type SignupFlow interface {
	Start(ctx context.Context, form signup.Form) (string, error)
	Verify(ctx context.Context, reg signup.Registrar, flowID, code string) (*model.PendingSignup, error)
	Resend(ctx context.Context, flowID string) error
	Status(flowID string) (signup.Status, error)
	Cancel(flowID string)
}

// SignupHandler はOTPメール認証付きサインアップのHTTPハンドラー。
type SignupHandler struct {
	responder
	flow    SignupFlow
	flowTTL time.Duration
}

// NewSignupHandler はSignupHandlerを生成する。
// flowTTLはsignup_flow Cookieの有効期間で、途中データの保持期間と揃える。
func NewSignupHandler(flow SignupFlow, flowTTL time.Duration, session middleware.SessionConfig, logger *slog.Logger) *SignupHandler {
	return &SignupHandler{
		responder: responder{session: session, logger: logger},
		flow:      flow,
		flowTTL:   flowTTL,
	}
}

// verifyRequest はOTP入力フォームの値。
type verifyRequest struct {
	Code string `json:"code"`
}

// otpVerificationView はOTP検証画面のビューモデル。
type otpVerificationView struct {
	View     string `json:"view"`
	Email    string `json:"email"`
	ResendIn int    `json:"resendIn"`
}

// SignUp はサインアップのステップ1を処理する。
// POST /auth/signup?redirect=/projects/1
// 成功時はsignup_flow Cookieを設定し、/otpverificationへ303で遷移する。
func (h *SignupHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var form signup.Form
	if err := decodeJSON(w, r, &form); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	form.Redirect = security.SafeRedirect(r.URL.Query().Get("redirect"), "")

	flowID, err := h.flow.Start(r.Context(), form)
	switch {
	case err == nil:
	case errors.Is(err, signup.ErrMissingFields):
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	case errors.Is(err, signup.ErrPasswordMismatch):
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewPasswordMismatchError())
		return
	default:
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewOTPSendFailedError())
		return
	}

	h.setFlowCookie(w, flowID)
	http.Redirect(w, r, otpVerificationPath, http.StatusSeeOther)
}

// OTPVerification はOTP検証画面のビューモデルを返す。
// GET /otpverification
// 途中データがなければ/signupへ303で遷移する。
func (h *SignupHandler) OTPVerification(w http.ResponseWriter, r *http.Request) {
	status, err := h.flow.Status(flowIDOf(r))
	if err != nil {
		h.clearFlowCookie(w)
		http.Redirect(w, r, signUpPath, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, otpVerificationView{
		View:     "otpverification",
		Email:    status.Email,
		ResendIn: status.ResendIn,
	})
}

// Verify はサインアップのステップ2を処理する。
// POST /auth/otp/verify
// OTP検証とアカウント作成に成功すると、/signin（元のredirectパラメータ付き）へ303で遷移する。
func (h *SignupHandler) Verify(w http.ResponseWriter, r *http.Request) {
	store := storeOf(r)
	if store == nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	pending, err := h.flow.Verify(r.Context(), store, flowIDOf(r), req.Code)
	switch {
	case err == nil:
	case errors.Is(err, signup.ErrInvalidCode):
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewOTPFormatError())
		return
	case errors.Is(err, signup.ErrFlowNotFound):
		h.clearFlowCookie(w)
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewSignupExpiredError())
		return
	case errors.Is(err, signup.ErrVerificationFailed):
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewOTPInvalidError(store.LastError()))
		return
	default:
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewSignUpFailedError(store.LastError()))
		return
	}

	h.clearFlowCookie(w)
	target := middleware.SignInPath
	if pending.RedirectURL != "" {
		target += "?redirect=" + url.QueryEscape(pending.RedirectURL)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Resend はOTPを再送する。
// POST /auth/otp/resend
// 待機時間中は429とRetry-Afterを返す。
func (h *SignupHandler) Resend(w http.ResponseWriter, r *http.Request) {
	flowID := flowIDOf(r)
	err := h.flow.Resend(r.Context(), flowID)

	var cooldown *signup.CooldownError
	switch {
	case err == nil:
	case errors.As(err, &cooldown):
		w.Header().Set("Retry-After", strconv.Itoa(cooldown.Seconds()))
		middleware.WriteErrorResponse(w, http.StatusTooManyRequests, model.NewResendCooldownError(cooldown.Seconds()))
		return
	case errors.Is(err, signup.ErrFlowNotFound):
		h.clearFlowCookie(w)
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewSignupExpiredError())
		return
	default:
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewOTPSendFailedError())
		return
	}

	status, err := h.flow.Status(flowID)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewSignupExpiredError())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Cancel はサインアップ途中データを破棄して/signupへ303で遷移する。
// POST /auth/signup/cancel
func (h *SignupHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if flowID := flowIDOf(r); flowID != "" {
		h.flow.Cancel(flowID)
	}
	h.clearFlowCookie(w)
	http.Redirect(w, r, signUpPath, http.StatusSeeOther)
}

func (h *SignupHandler) setFlowCookie(w http.ResponseWriter, flowID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     signupFlowCookie,
		Value:    flowID,
		Path:     "/",
		Domain:   h.session.CookieDomain,
		MaxAge:   int(h.flowTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *SignupHandler) clearFlowCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     signupFlowCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.session.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// flowIDOf はsignup_flow CookieからフローIDを取得する。
func flowIDOf(r *http.Request) string {
	cookie, err := r.Cookie(signupFlowCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
