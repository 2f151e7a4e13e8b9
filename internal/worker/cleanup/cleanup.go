// Package cleanup は期限切れブラウザセッションの自動削除ジョブを提供する。
// 削除はSESSION_CLEANUP_SCHEDULEのcron式に従って定期実行する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionDeleter は期限切れのブラウザセッションを削除する。
// repository.BrowserSessionRepositoryが実装する。
type SessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Metrics はクリーンアップジョブが記録するメトリクス。
type Metrics interface {
	RecordSessionsCleaned(count int64)
}

// CleanupJob は期限切れブラウザセッションの削除ジョブ。
// 冪等: 削除対象がない場合でもエラーにならない。
type CleanupJob struct {
	sessions SessionDeleter
	metrics  Metrics
	logger   *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionDeleter, metrics Metrics, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run はexpires_atを過ぎたブラウザセッションを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	j.metrics.RecordSessionsCleaned(deletedCount)

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
