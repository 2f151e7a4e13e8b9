package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job はスケジューラが定期実行するジョブ。
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler はcron式に従ってジョブを実行する。
// 起動直後に1回実行し、以降はcron式の次回時刻ごとに実行する。
type Scheduler struct {
	job      Job
	spec     string
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler はSchedulerを生成する。
// specは5フィールドのcron式、または"@hourly"・"@every 30m"などの記述子。
func NewScheduler(job Job, spec string, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	return &Scheduler{
		job:      job,
		spec:     spec,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Next はafterより後の次回実行時刻を返す。
func (s *Scheduler) Next(after time.Time) time.Time {
	return s.schedule.Next(after)
}

// Start はコンテキストがキャンセルされるまでジョブを定期実行する（ブロッキング）。
// ジョブのエラーはログに記録して次回の実行を待つ。
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("クリーンアップスケジューラを開始しました", slog.String("schedule", s.spec))

	s.runOnce(ctx)

	for {
		now := s.now()
		next := s.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("クリーンアップスケジューラを停止しました")
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job.Run(ctx); err != nil {
		s.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}
}
