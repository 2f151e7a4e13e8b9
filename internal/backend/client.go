// Package backend はタスク管理REST APIのクライアントを提供する。
// ベアラートークンの付与と401応答時のセッション失効はbearerTransportが担う。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes はレスポンスボディの読み取り上限。
const maxResponseBytes = 4 << 20

// Observer はバックエンド呼び出しの結果を記録するインターフェース。
// metrics.Collectorが実装する。
type Observer interface {
	ObserveBackendRequest(operation string, statusCode int, duration time.Duration)
}

// Client はREST APIのクライアント。
// 全ての呼び出しはcontextを受け取り、受信リクエストのキャンセルで中断される。
// 失敗したリクエストは再試行しない。
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientのTransportはbearerTransportでラップされる。observerはnilでもよい。
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, observer Observer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	hc := *httpClient
	hc.Transport = newBearerTransport(httpClient.Transport)

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &hc,
		logger:     logger,
		observer:   observer,
	}
}

// request は1回のAPI呼び出しの内容。
type request struct {
	op             string // メトリクスとログ用の操作名（例: "projects.get"）
	method         string
	path           string
	query          url.Values
	body           any
	defaultMessage string // エラー時にバックエンドのmessageがない場合のメッセージ
}

// doJSON はリクエストを送信し、成功時にレスポンスJSONをoutへデコードする。
// outがnilの場合はボディを読み捨てる。
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	body, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("バックエンドのレスポンスのパースに失敗しました",
			slog.String("operation", r.op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to decode %s response: %w", r.op, err)
	}
	return nil
}

// send はリクエストを送信し、2xxの場合にレスポンスボディを返す。
// トークン付きリクエストの401はErrUnauthorized、それ以外の2xx以外は*Errorを返す。
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	// 1. リクエストURL構築
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	// 2. リクエストボディ構築
	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", r.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// 送信後はRevokeでトークンが消えるため、送信前に認証付きかを判定しておく
	authenticated := false
	if creds := CredentialsFrom(ctx); creds != nil && creds.Token() != "" {
		authenticated = true
	}

	// 3. 送信
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(r.op, 0, time.Since(start))
		c.logger.Error("バックエンドの呼び出しに失敗しました",
			slog.String("operation", r.op),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s request failed: %w", r.op, err)
	}
	defer resp.Body.Close()
	c.observe(r.op, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", r.op, err)
	}

	// 4. ステータス判定
	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		c.logger.Warn("バックエンドが認証エラーを返しました。セッションを失効させます",
			slog.String("operation", r.op),
		)
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("バックエンドがエラーステータスを返しました",
			slog.String("operation", r.op),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    messageFromBody(body, r.defaultMessage),
		}
	}

	return body, nil
}

func (c *Client) observe(op string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendRequest(op, status, d)
	}
}

// escape はパスセグメントをエスケープする。
func escape(id string) string {
	return url.PathEscape(id)
}
