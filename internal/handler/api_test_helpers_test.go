package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
	"github.com/hitoshi/taskdeck/internal/signup"
)

const (
	testBrowserID = "sid-api"
	testCSRFToken = "csrf-test-token"
)

// noopSignupFlow はサインアップを使わないテスト用のSignupFlow。
type noopSignupFlow struct{}

func (noopSignupFlow) Start(ctx context.Context, form signup.Form) (string, error) {
	return "", signup.ErrMissingFields
}

func (noopSignupFlow) Verify(ctx context.Context, reg signup.Registrar, flowID, code string) (*model.PendingSignup, error) {
	return nil, signup.ErrFlowNotFound
}

func (noopSignupFlow) Resend(ctx context.Context, flowID string) error { return signup.ErrFlowNotFound }

func (noopSignupFlow) Status(flowID string) (signup.Status, error) {
	return signup.Status{}, signup.ErrFlowNotFound
}

func (noopSignupFlow) Cancel(flowID string) {}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// apiTestEnv はNewRouterで組み立てたテスト用サーバー。
type apiTestEnv struct {
	handler http.Handler
	repo    *fakeSessionRepo
	api     *fakeBackend
}

// newAPITestEnv はfakeBackendとサインイン済みセッション（testBrowserID）を持つルーターを組み立てる。
func newAPITestEnv(t *testing.T, api *fakeBackend) *apiTestEnv {
	t.Helper()
	repo := newFakeSessionRepo()
	seedSession(t, repo, testBrowserID, "1")

	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(6000, 6000))
	t.Cleanup(rl.Stop)

	h := NewRouter(&RouterDeps{
		HealthChecker: pingerFunc(func(ctx context.Context) error { return nil }),
		Gatherer:      prometheus.NewRegistry(),
		Logger:        discardLogger(),
		Stores:        newTestManager(repo, nil),
		Session:       testSessionConfig,
		RateLimiter:   rl,
		Signup:        noopSignupFlow{},
		SignupTTL:     15 * time.Minute,
		Backend:       api,
		Sanitizer:     security.NewTextSanitizer(),
	})
	return &apiTestEnv{handler: h, repo: repo, api: api}
}

// do はセッションCookieとCSRFトークンを付けてリクエストを送る。
func (e *apiTestEnv) do(method, target, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: testBrowserID})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w.Result()
}
