// Package auth はベアラートークンのデコード、ブラウザごとのセッションストア、
// セッション状態（Loading/Authenticated/Anonymous）を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/hitoshi/taskdeck/internal/backend"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// AuthAPI はセッションストアが利用するバックエンドの認証API。
// backend.Clientが実装する。
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	SignUp(ctx context.Context, req backend.SignUpRequest) error
	VerifyOTP(ctx context.Context, email, code string) error
}

// Metrics はセッションストアが記録するメトリクス。
type Metrics interface {
	RecordSignIn(success bool)
	RecordSessionRestore(outcome string)
	RecordForcedLogout()
	RecordOTPVerify(success bool)
}

// ManagerConfig はセッション管理の設定。
type ManagerConfig struct {
	SessionMaxAge time.Duration // 永続化トークンの保持期間
}

// Manager はリクエストごとのStoreを生成する。
// Store間で共有されるのはリポジトリとバックエンドクライアントのみ。
type Manager struct {
	repo    repository.BrowserSessionRepository
	api     AuthAPI
	metrics Metrics
	logger  *slog.Logger
	config  ManagerConfig
	now     func() time.Time
	newID   func() (string, error)
}

// NewManager はManagerを生成する。
func NewManager(
	repo repository.BrowserSessionRepository,
	api AuthAPI,
	metrics Metrics,
	logger *slog.Logger,
	config ManagerConfig,
) *Manager {
	return &Manager{
		repo:    repo,
		api:     api,
		metrics: metrics,
		logger:  logger,
		config:  config,
		now:     time.Now,
		newID:   generateBrowserID,
	}
}

// NewStore はLoading状態のStoreを生成する。
// browserIDはsession_id Cookieの値。Cookieがない場合は空文字列。
func (m *Manager) NewStore(browserID string) *Store {
	return &Store{
		m:         m,
		browserID: browserID,
		state:     Loading{},
	}
}

// generateBrowserID は暗号的に安全なブラウザセッションIDを生成する。
func generateBrowserID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
