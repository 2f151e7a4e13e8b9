package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/taskdeck/internal/backend"
	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/model"
)

// フォームに表示する既定のエラーメッセージ
const (
	msgMissingFields  = "Please fill in all fields"
	msgSignInFailed   = "Failed to sign in"
	msgSignUpFailed   = "Failed to sign up"
	msgVerifyFailed   = "Failed to verify OTP"
	msgNoTokenInReply = "No token received from server"
)

var (
	// ErrMissingFields はサインインの必須項目が未入力であることを示す。
	ErrMissingFields = errors.New("auth: missing required fields")
	// ErrNoToken はサインイン応答にトークンが含まれていないことを示す。
	ErrNoToken = errors.New("auth: no token received from server")
)

// Store は1つのブラウザのセッション状態を保持する。
// リクエストごとに生成され、contextで受け渡される。状態の変更は全てメソッド経由で行う。
//
// opMuは操作（復元・サインイン等）を直列化し、muはフィールドを保護する。
// バックエンド呼び出し中にbearerTransportがToken/Revokeを呼ぶため、
// ネットワーク呼び出しの間はmuを保持しない。
type Store struct {
	m *Manager

	opMu sync.Mutex

	mu        sync.RWMutex
	browserID string
	state     State
	lastErr   string
}

// Restore は永続化トークンからセッションを復元する（初回ロード）。
// セッションが既にあれば何もしない。Cookieまたは行がなければAnonymous、
// トークンがデコードできなければ行を削除してAnonymousにする。
// リポジトリのエラー時は状態をLoadingのままにしてエラーを返す。
func (s *Store) Restore(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	_, authenticated := s.state.(Authenticated)
	browserID := s.browserID
	s.mu.RUnlock()

	if authenticated {
		return nil
	}

	if browserID == "" {
		s.setState(Anonymous{})
		s.m.metrics.RecordSessionRestore(metrics.RestoreAnonymous)
		return nil
	}

	row, err := s.m.repo.FindByID(ctx, browserID)
	if err != nil {
		s.m.metrics.RecordSessionRestore(metrics.RestoreError)
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if row == nil {
		s.mu.Lock()
		s.browserID = ""
		s.state = Anonymous{}
		s.mu.Unlock()
		s.m.metrics.RecordSessionRestore(metrics.RestoreAnonymous)
		return nil
	}

	session, err := DecodeToken(row.Token)
	if err != nil {
		s.m.logger.Warn("保存済みトークンを復元できないため破棄します",
			slog.String("error", err.Error()),
		)
		if delErr := s.m.repo.DeleteByID(ctx, browserID); delErr != nil {
			s.m.logger.Error("破棄対象のブラウザセッションの削除に失敗しました",
				slog.String("error", delErr.Error()),
			)
		}
		s.mu.Lock()
		s.browserID = ""
		s.state = Anonymous{}
		s.mu.Unlock()
		s.m.metrics.RecordSessionRestore(metrics.RestoreInvalidToken)
		return nil
	}

	s.setState(Authenticated{Session: *session})
	s.m.metrics.RecordSessionRestore(metrics.RestoreAuthenticated)
	return nil
}

// SignIn はメールアドレスとパスワードでサインインする。
// 成功時はトークンを新しいブラウザセッションIDで永続化し、以前の行は削除する。
// 失敗時はLastErrorにメッセージを設定し、セッションは変更しない。
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLastError("")

	if strings.TrimSpace(email) == "" || password == "" {
		s.setLastError(msgMissingFields)
		return ErrMissingFields
	}

	// 1. バックエンドで認証
	token, err := s.m.api.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.setLastError(backend.MessageOf(err, msgSignInFailed))
		s.m.metrics.RecordSignIn(false)
		return fmt.Errorf("sign in: %w", err)
	}
	if token == "" {
		s.setLastError(msgNoTokenInReply)
		s.m.metrics.RecordSignIn(false)
		return ErrNoToken
	}

	// 2. トークンをデコード
	session, err := DecodeToken(token)
	if err != nil {
		s.setLastError(msgSignInFailed)
		s.m.metrics.RecordSignIn(false)
		return fmt.Errorf("sign in: %w", err)
	}

	// 3. 新しいIDで永続化
	newID, err := s.m.newID()
	if err != nil {
		s.setLastError(msgSignInFailed)
		s.m.metrics.RecordSignIn(false)
		return fmt.Errorf("failed to generate browser session ID: %w", err)
	}
	now := s.m.now()
	row := &model.BrowserSession{
		ID:        newID,
		Token:     token,
		ExpiresAt: now.Add(s.m.config.SessionMaxAge),
		CreatedAt: now,
	}
	if err := s.m.repo.Create(ctx, row); err != nil {
		s.setLastError(msgSignInFailed)
		s.m.metrics.RecordSignIn(false)
		return fmt.Errorf("failed to persist session: %w", err)
	}

	// 4. 以前のブラウザセッションを破棄して状態を切り替える
	s.mu.Lock()
	oldID := s.browserID
	s.browserID = newID
	s.state = Authenticated{Session: *session}
	s.mu.Unlock()

	if oldID != "" {
		if err := s.m.repo.DeleteByID(ctx, oldID); err != nil {
			s.m.logger.Error("以前のブラウザセッションの削除に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}

	s.m.metrics.RecordSignIn(true)
	s.m.logger.Info("user signed in", slog.String("user_id", session.UserID))
	return nil
}

// SignUp はアカウントを作成する。セッションは確立しない。
func (s *Store) SignUp(ctx context.Context, req backend.SignUpRequest) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLastError("")
	if err := s.m.api.SignUp(ctx, req); err != nil {
		s.setLastError(backend.MessageOf(err, msgSignUpFailed))
		return fmt.Errorf("sign up: %w", err)
	}
	return nil
}

// VerifyOTP はワンタイムコードを検証する。セッションは確立しない。
func (s *Store) VerifyOTP(ctx context.Context, email, code string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLastError("")
	if err := s.m.api.VerifyOTP(ctx, email, code); err != nil {
		s.setLastError(backend.MessageOf(err, msgVerifyFailed))
		s.m.metrics.RecordOTPVerify(false)
		return fmt.Errorf("verify otp: %w", err)
	}
	s.m.metrics.RecordOTPVerify(true)
	return nil
}

// Logout はセッションと永続化トークンを同期的に破棄する。
// 以前の状態に関わらず、呼び出し後は必ずAnonymousになる。
func (s *Store) Logout(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.clear(ctx)
}

// Revoke はバックエンドの401応答を受けてセッションを強制的に破棄する。
// バックエンド呼び出しの途中（opMu保持中）に呼ばれるためopMuは取得しない。
func (s *Store) Revoke(ctx context.Context) {
	userID := ""
	if sess, ok := s.Session(); ok {
		userID = sess.UserID
	}
	s.clear(ctx)
	s.m.metrics.RecordForcedLogout()
	s.m.logger.Warn("session revoked by backend", slog.String("user_id", userID))
}

// clear はメモリ上のセッションと永続化トークンを破棄する。
// リポジトリのエラーはログに記録するが、メモリ上の状態は必ず破棄する。
func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	browserID := s.browserID
	s.browserID = ""
	s.state = Anonymous{}
	s.mu.Unlock()

	if browserID == "" {
		return
	}
	if err := s.m.repo.DeleteByID(ctx, browserID); err != nil {
		s.m.logger.Error("ブラウザセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// State は現在の状態を返す。
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Session は確立済みのセッションを返す。セッションがない場合はfalseを返す。
func (s *Store) Session() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.state.(Authenticated); ok {
		return a.Session, true
	}
	return model.Session{}, false
}

// Token は現在のベアラートークンを返す。セッションがない場合は空文字列。
// backend.Credentialsを実装する。
func (s *Store) Token() string {
	sess, ok := s.Session()
	if !ok {
		return ""
	}
	return sess.Token
}

// LastError は直近の操作で設定されたエラーメッセージを返す。
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// BrowserID はsession_id Cookieに設定すべき値を返す。空の場合はCookieを削除する。
func (s *Store) BrowserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.browserID
}

func (s *Store) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Store) setLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// compile-time interface check
var _ backend.Credentials = (*Store)(nil)
