package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ListTasks はタスク一覧を取得する。projectIDが空でなければそのプロジェクトに絞り込む。
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	var query url.Values
	if projectID != "" {
		query = url.Values{"projectId": {projectID}}
	}
	var tasks []model.Task
	err := c.doJSON(ctx, request{
		op:             "tasks.list",
		method:         http.MethodGet,
		path:           "/api/tasks",
		query:          query,
		defaultMessage: "Failed to fetch tasks",
	}, &tasks)
	return tasks, err
}

// GetTask は指定IDのタスクを取得する。
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := c.doJSON(ctx, request{
		op:             "tasks.get",
		method:         http.MethodGet,
		path:           "/api/tasks/" + escape(id),
		defaultMessage: "Failed to fetch task",
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask はタスクを作成する。
func (c *Client) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	var created model.Task
	err := c.doJSON(ctx, request{
		op:             "tasks.create",
		method:         http.MethodPost,
		path:           "/api/tasks",
		body:           t,
		defaultMessage: "Failed to create task",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask はタスクを更新する。
func (c *Client) UpdateTask(ctx context.Context, id string, t model.Task) (*model.Task, error) {
	var updated model.Task
	err := c.doJSON(ctx, request{
		op:             "tasks.update",
		method:         http.MethodPut,
		path:           "/api/tasks/" + escape(id),
		body:           t,
		defaultMessage: "Failed to update task",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateTaskStatus はタスクのステータスのみを更新する。
func (c *Client) UpdateTaskStatus(ctx context.Context, id, status string) (*model.Task, error) {
	var updated model.Task
	err := c.doJSON(ctx, request{
		op:             "tasks.update_status",
		method:         http.MethodPatch,
		path:           "/api/tasks/" + escape(id) + "/status",
		body:           map[string]string{"status": status},
		defaultMessage: "Failed to update task status",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask はタスクを削除する。
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, request{
		op:             "tasks.delete",
		method:         http.MethodDelete,
		path:           "/api/tasks/" + escape(id),
		defaultMessage: "Failed to delete task",
	}, nil)
}
