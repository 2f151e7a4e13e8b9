// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// BrowserSessionRepository はブラウザごとに永続化されたベアラートークンのインターフェース。
// ドメインデータ（プロジェクト、タスク等）はバックエンドが保持するため、ここでは扱わない。
type BrowserSessionRepository interface {
	// Create はブラウザセッションを作成する。
	Create(ctx context.Context, session *model.BrowserSession) error

	// FindByID は指定IDのブラウザセッションを取得する。
	// 見つからない場合、または期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.BrowserSession, error)

	// DeleteByID は指定IDのブラウザセッションを削除する。
	// 存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は期限切れのブラウザセッションを全て削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
