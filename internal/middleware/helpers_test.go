package middleware

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/backend"
	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/model"
)

// --- テスト用の共通部品 ---

type fakeSessionRepo struct {
	mu      sync.Mutex
	rows    map[string]*model.BrowserSession
	findErr error
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
	if f.findErr != nil {
		return nil, f.findErr
	}
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

// noAuthAPI はガードのテストで呼ばれないことを前提とした認証API。
type noAuthAPI struct{}

func (noAuthAPI) SignIn(ctx context.Context, email, password string) (string, error) {
	return "", backend.ErrUnauthorized
}

func (noAuthAPI) SignUp(ctx context.Context, req backend.SignUpRequest) error { return nil }

func (noAuthAPI) VerifyOTP(ctx context.Context, email, code string) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(repo *fakeSessionRepo) *auth.Manager {
	return auth.NewManager(
		repo,
		noAuthAPI{},
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

// restoredStore は復元済みのStoreを返す。browserIDが空ならAnonymous。
func restoredStore(t *testing.T, repo *fakeSessionRepo, browserID string) *auth.Store {
	t.Helper()
	store := newTestManager(repo).NewStore(browserID)
	if err := store.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	return store
}

// authenticatedContext はAuthenticatedなStoreを持つcontextを返す。
func authenticatedContext(t *testing.T, userID string) context.Context {
	t.Helper()
	repo := newFakeSessionRepo()
	seedSession(t, repo, "sid-"+userID, userID)
	return auth.WithStore(context.Background(), restoredStore(t, repo, "sid-"+userID))
}
