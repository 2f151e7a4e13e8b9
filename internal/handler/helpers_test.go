package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/backend"
	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
)

// --- テスト用の共通部品 ---

var testSessionConfig = middleware.SessionConfig{MaxAge: 3600}

type fakeSessionRepo struct {
	mu      sync.Mutex
	rows    map[string]*model.BrowserSession
	deleted []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: make(map[string]*model.BrowserSession)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *model.BrowserSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) FindByID(ctx context.Context, id string) (*model.BrowserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id], nil
}

func (f *fakeSessionRepo) DeleteByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeSessionRepo) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok
}

// stubAuthAPI は関数フィールドで振る舞いを差し替える認証API。
type stubAuthAPI struct {
	signInFn    func(ctx context.Context, email, password string) (string, error)
	signUpFn    func(ctx context.Context, req backend.SignUpRequest) error
	verifyOTPFn func(ctx context.Context, email, code string) error
}

func (s *stubAuthAPI) SignIn(ctx context.Context, email, password string) (string, error) {
	if s.signInFn != nil {
		return s.signInFn(ctx, email, password)
	}
	return "", backend.ErrUnauthorized
}

func (s *stubAuthAPI) SignUp(ctx context.Context, req backend.SignUpRequest) error {
	if s.signUpFn != nil {
		return s.signUpFn(ctx, req)
	}
	return nil
}

func (s *stubAuthAPI) VerifyOTP(ctx context.Context, email, code string) error {
	if s.verifyOTPFn != nil {
		return s.verifyOTPFn(ctx, email, code)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(repo *fakeSessionRepo, api auth.AuthAPI) *auth.Manager {
	if api == nil {
		api = &stubAuthAPI{}
	}
	return auth.NewManager(
		repo,
		api,
		metrics.NewCollector(prometheus.NewRegistry()),
		discardLogger(),
		auth.ManagerConfig{SessionMaxAge: time.Hour},
	)
}

// mintToken はテスト用のベアラートークンを生成する。署名は検証されない。
func mintToken(t *testing.T, email, userID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      email,
		"id":       userID,
		"fullName": "Test User",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

// seedSession は有効なトークンを持つブラウザセッション行を登録する。
func seedSession(t *testing.T, repo *fakeSessionRepo, id, userID string) {
	t.Helper()
	repo.rows[id] = &model.BrowserSession{
		ID:        id,
		Token:     mintToken(t, userID+"@example.com", userID),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// withStore はセッションローダーと同じ形でStoreをリクエストに注入する。
func withStore(r *http.Request, store *auth.Store) *http.Request {
	ctx := auth.WithStore(r.Context(), store)
	ctx = backend.WithCredentials(ctx, store)
	return r.WithContext(ctx)
}

// restoredStore は復元済みのStoreを返す。browserIDが空ならAnonymous。
func restoredStore(t *testing.T, m *auth.Manager, browserID string) *auth.Store {
	t.Helper()
	store := m.NewStore(browserID)
	if err := store.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	return store
}

// authenticated はuserIDでサインイン済みのStoreをリクエストに注入する。
func authenticated(t *testing.T, r *http.Request, userID string) *http.Request {
	t.Helper()
	repo := newFakeSessionRepo()
	seedSession(t, repo, "sid-"+userID, userID)
	return withStore(r, restoredStore(t, newTestManager(repo, nil), "sid-"+userID))
}

func decodeAPIError(t *testing.T, body io.Reader) middleware.ErrorResponseBody {
	t.Helper()
	var got middleware.ErrorResponseBody
	if err := json.NewDecoder(body).Decode(&got); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return got
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// assertCleared はCookieが削除指定で返されたことを確認する。
func assertCleared(t *testing.T, resp *http.Response, name string) {
	t.Helper()
	c := findCookie(resp, name)
	if c == nil {
		t.Fatalf("%s cookie not returned", name)
	}
	if c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("%s cookie = %+v, want cleared", name, c)
	}
}
