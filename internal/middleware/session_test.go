package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/taskdeck/internal/auth"
	"github.com/hitoshi/taskdeck/internal/backend"
)

func newTestLoader(repo *fakeSessionRepo) func(http.Handler) http.Handler {
	return NewSessionLoader(newTestManager(repo), SessionConfig{MaxAge: 3600}, discardLogger())
}

// TestSessionLoader_ValidSession_RestoresAuthenticated は有効なCookieでAuthenticatedに復元されることを検証する。
func TestSessionLoader_ValidSession_RestoresAuthenticated(t *testing.T) {
	repo := newFakeSessionRepo()
	seedSession(t, repo, "valid-session", "user-1")

	var state auth.State
	var userID string
	var creds backend.Credentials
	handler := newTestLoader(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state = auth.StoreFrom(r.Context()).State()
		userID, _ = UserIDFromContext(r.Context())
		creds = backend.CredentialsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if _, ok := state.(auth.Authenticated); !ok {
		t.Fatalf("state = %T, want auth.Authenticated", state)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
	if creds == nil || creds.Token() == "" {
		t.Error("credentials with token should be injected into context")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("valid session cookie should not be rewritten")
	}
}

// TestSessionLoader_NoCookie_Anonymous はCookieがない場合にAnonymousになることを検証する。
func TestSessionLoader_NoCookie_Anonymous(t *testing.T) {
	var state auth.State
	handler := newTestLoader(newFakeSessionRepo())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state = auth.StoreFrom(r.Context()).State()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if _, ok := state.(auth.Anonymous); !ok {
		t.Errorf("state = %T, want auth.Anonymous", state)
	}
}

// TestSessionLoader_UnknownSession_ClearsCookie は存在しない行を指すCookieが削除されることを検証する。
func TestSessionLoader_UnknownSession_ClearsCookie(t *testing.T) {
	var state auth.State
	handler := newTestLoader(newFakeSessionRepo())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state = auth.StoreFrom(r.Context()).State()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "gone"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if _, ok := state.(auth.Anonymous); !ok {
		t.Errorf("state = %T, want auth.Anonymous", state)
	}
	assertSessionCookieCleared(t, w)
}

// TestSessionLoader_UndecodableToken_DeletesRow はデコードできないトークンの行が破棄されることを検証する。
func TestSessionLoader_UndecodableToken_DeletesRow(t *testing.T) {
	repo := newFakeSessionRepo()
	seedSession(t, repo, "broken", "user-1")
	repo.rows["broken"].Token = "not-a-token"

	handler := newTestLoader(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "broken"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if _, ok := repo.rows["broken"]; ok {
		t.Error("row with undecodable token should be deleted")
	}
	assertSessionCookieCleared(t, w)
}

// TestSessionLoader_RepositoryError_StaysLoading はリポジトリのエラー時にLoadingのまま継続することを検証する。
func TestSessionLoader_RepositoryError_StaysLoading(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.findErr = errors.New("connection refused")

	var state auth.State
	handler := newTestLoader(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state = auth.StoreFrom(r.Context()).State()
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "any"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if _, ok := state.(auth.Loading); !ok {
		t.Errorf("state = %T, want auth.Loading", state)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("cookie should be kept when the repository is unavailable")
	}
}

// TestSetSessionCookie_Attributes はセッションCookieの属性を検証する。
func TestSetSessionCookie_Attributes(t *testing.T) {
	w := httptest.NewRecorder()
	SetSessionCookie(w, SessionConfig{CookieSecure: true, CookieDomain: "example.com", MaxAge: 600}, "abc")

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "abc" {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure {
		t.Error("session cookie must be HttpOnly and Secure")
	}
	if c.MaxAge != 600 {
		t.Errorf("MaxAge = %d, want 600", c.MaxAge)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}

// TestUserIDFromContext_NoStore_ReturnsError はStoreがない場合にエラーになることを検証する。
func TestUserIDFromContext_NoStore_ReturnsError(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for context without store")
	}
}

// TestUserIDFromContext_Anonymous_ReturnsError はAnonymousの場合にエラーになることを検証する。
func TestUserIDFromContext_Anonymous_ReturnsError(t *testing.T) {
	ctx := auth.WithStore(context.Background(), restoredStore(t, newFakeSessionRepo(), ""))
	if _, err := UserIDFromContext(ctx); err == nil {
		t.Error("expected error for anonymous store")
	}
}

func assertSessionCookieCleared(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			if c.MaxAge >= 0 {
				t.Errorf("session cookie MaxAge = %d, want negative", c.MaxAge)
			}
			return
		}
	}
	t.Error("session cookie should be cleared")
}
