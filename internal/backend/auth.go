package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// SignUpRequest はアカウント作成リクエスト。
// VerifiedはOTP検証後の最終登録時にtrueにする。
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
	Username string `json:"username,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// SignIn はメールアドレスとパスワードで認証し、ベアラートークンを返す。
// バックエンドはトークンを文字列そのもの（JSON文字列またはプレーンテキスト）で返す。
// {"token": "..."} 形式も受け付ける。
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := c.send(ctx, request{
		op:     "auth.signin",
		method: http.MethodPost,
		path:   "/api/auth/signin",
		body: map[string]string{
			"email":    email,
			"password": password,
		},
		defaultMessage: "Failed to sign in",
	})
	if err != nil {
		return "", err
	}
	return tokenFromBody(body), nil
}

// SignUp はアカウントを作成する。セッションは確立しない。
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	return c.doJSON(ctx, request{
		op:             "auth.signup",
		method:         http.MethodPost,
		path:           "/api/auth/signup",
		body:           req,
		defaultMessage: "Failed to sign up",
	}, nil)
}

// SendOTP は指定メールアドレスへワンタイムコードを送信する。
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.doJSON(ctx, request{
		op:             "otp.send",
		method:         http.MethodPost,
		path:           "/api/otp/send",
		body:           map[string]string{"email": email},
		defaultMessage: "Failed to send OTP. Please try again.",
	}, nil)
}

// VerifyOTP はワンタイムコードを検証する。
func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	return c.doJSON(ctx, request{
		op:     "otp.verify",
		method: http.MethodPost,
		path:   "/api/otp/verify",
		body: map[string]string{
			"email": email,
			"code":  code,
		},
		defaultMessage: "Failed to verify OTP",
	}, nil)
}

// tokenFromBody はサインインのレスポンスボディからトークンを取り出す。
func tokenFromBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj.Token
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	return trimmed
}
