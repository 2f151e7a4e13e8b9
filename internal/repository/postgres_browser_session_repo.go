package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/taskdeck/internal/model"
)

// PostgresBrowserSessionRepo はPostgreSQLを使用したブラウザセッションリポジトリ。
type PostgresBrowserSessionRepo struct {
	db *sql.DB
}

// NewPostgresBrowserSessionRepo はPostgresBrowserSessionRepoを生成する。
func NewPostgresBrowserSessionRepo(db *sql.DB) *PostgresBrowserSessionRepo {
	return &PostgresBrowserSessionRepo{db: db}
}

// Create はブラウザセッションを作成する。
func (r *PostgresBrowserSessionRepo) Create(ctx context.Context, session *model.BrowserSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO browser_sessions (id, token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.Token, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create browser session: %w", err)
	}
	return nil
}

// FindByID は指定IDのブラウザセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresBrowserSessionRepo) FindByID(ctx context.Context, id string) (*model.BrowserSession, error) {
	session := &model.BrowserSession{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, expires_at, created_at
		 FROM browser_sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &session.Token, &session.ExpiresAt, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find browser session: %w", err)
	}

	return session, nil
}

// DeleteByID は指定IDのブラウザセッションを削除する。
func (r *PostgresBrowserSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM browser_sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete browser session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れのブラウザセッションを全て削除する。
func (r *PostgresBrowserSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM browser_sessions WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired browser sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted browser sessions: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ BrowserSessionRepository = (*PostgresBrowserSessionRepo)(nil)
