package backend

import (
	"context"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/model"
)

// DashboardStats はダッシュボードの集計値を取得する。
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	err := c.doJSON(ctx, request{
		op:             "dashboard.stats",
		method:         http.MethodGet,
		path:           "/api/dashboard/stats",
		defaultMessage: "Failed to fetch dashboard stats",
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
