package backend

import (
	"context"
	"net/http"
)

// Credentials はリクエストに付与するベアラートークンの持ち主。
// リクエストごとのセッションストアが実装する。
type Credentials interface {
	// Token は現在のベアラートークンを返す。未認証の場合は空文字列。
	Token() string
	// Revoke はバックエンドが401を返した際に呼ばれ、セッションを強制的に破棄する。
	Revoke(ctx context.Context)
}

type credentialsKey struct{}

// WithCredentials はcontextに認証情報を格納する。
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFrom はcontextから認証情報を取得する。未設定の場合はnilを返す。
func CredentialsFrom(ctx context.Context) Credentials {
	creds, _ := ctx.Value(credentialsKey{}).(Credentials)
	return creds
}

// bearerTransport はリクエスト時にAuthorizationヘッダーを付与し、
// 401レスポンスを受けた場合に認証情報を失効させるRoundTripper。
type bearerTransport struct {
	base http.RoundTripper
}

// newBearerTransport はbaseをラップしたbearerTransportを生成する。
// baseがnilの場合はhttp.DefaultTransportを使用する。
func newBearerTransport(base http.RoundTripper) *bearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if bt, ok := base.(*bearerTransport); ok {
		return bt
	}
	return &bearerTransport{base: base}
}

// RoundTrip はhttp.RoundTripperを実装する。
func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	creds := CredentialsFrom(ctx)

	token := ""
	if creds != nil {
		token = creds.Token()
	}

	// RoundTripperは元のリクエストを変更してはならないため複製してからヘッダーを付与する
	if token != "" {
		req = req.Clone(ctx)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// トークンを付けたリクエストが401になった場合のみセッションを失効させる。
	// 未認証のサインイン失敗などはフォームのエラーとして扱う。
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		creds.Revoke(ctx)
	}

	return resp, nil
}
