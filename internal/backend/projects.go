package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ListProjects は全プロジェクトを取得する。
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := c.doJSON(ctx, request{
		op:             "projects.list",
		method:         http.MethodGet,
		path:           "/api/projects",
		defaultMessage: "Failed to fetch projects",
	}, &projects)
	return projects, err
}

// ListProjectsByUser は指定ユーザーが所属するプロジェクトを取得する。
func (c *Client) ListProjectsByUser(ctx context.Context, userID string) ([]model.Project, error) {
	var projects []model.Project
	err := c.doJSON(ctx, request{
		op:             "projects.by_user",
		method:         http.MethodGet,
		path:           "/api/projects/user/" + escape(userID),
		defaultMessage: "Failed to fetch projects",
	}, &projects)
	return projects, err
}

// RecentProjects は最近更新されたプロジェクトを取得する。
func (c *Client) RecentProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := c.doJSON(ctx, request{
		op:             "projects.recent",
		method:         http.MethodGet,
		path:           "/api/projects/recent",
		defaultMessage: "Failed to fetch recent projects",
	}, &projects)
	return projects, err
}

// GetProject は指定IDのプロジェクトを取得する。
func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := c.doJSON(ctx, request{
		op:             "projects.get",
		method:         http.MethodGet,
		path:           "/api/projects/" + escape(id),
		defaultMessage: "Failed to fetch project",
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject はプロジェクトを作成し、作成結果を返す。
func (c *Client) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	var created model.Project
	err := c.doJSON(ctx, request{
		op:             "projects.create",
		method:         http.MethodPost,
		path:           "/api/projects",
		body:           p,
		defaultMessage: "Failed to create project",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProject はプロジェクトを更新する。
func (c *Client) UpdateProject(ctx context.Context, id string, p model.Project) (*model.Project, error) {
	var updated model.Project
	err := c.doJSON(ctx, request{
		op:             "projects.update",
		method:         http.MethodPut,
		path:           "/api/projects/" + escape(id),
		body:           p,
		defaultMessage: "Failed to update project",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject はプロジェクトを削除する。
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, request{
		op:             "projects.delete",
		method:         http.MethodDelete,
		path:           "/api/projects/" + escape(id),
		defaultMessage: "Failed to delete project",
	}, nil)
}

// ListMembers はプロジェクトのメンバー一覧を取得する。
func (c *Client) ListMembers(ctx context.Context, projectID string) ([]model.Member, error) {
	var members []model.Member
	err := c.doJSON(ctx, request{
		op:             "projects.members",
		method:         http.MethodGet,
		path:           "/api/projects/" + escape(projectID) + "/members",
		defaultMessage: "Failed to fetch members",
	}, &members)
	return members, err
}

// AddMember はプロジェクトにメンバーを追加する。memberIDにはメールアドレスも指定できる。
func (c *Client) AddMember(ctx context.Context, projectID, memberID string) error {
	return c.doJSON(ctx, request{
		op:             "projects.add_member",
		method:         http.MethodPost,
		path:           "/api/projects/" + escape(projectID) + "/add-member",
		query:          url.Values{"memberId": {memberID}},
		defaultMessage: "Failed to add member",
	}, nil)
}

// ListProjectTasks はプロジェクトに属するタスクを取得する。
func (c *Client) ListProjectTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	var tasks []model.Task
	err := c.doJSON(ctx, request{
		op:             "projects.tasks",
		method:         http.MethodGet,
		path:           "/api/projects/" + escape(projectID) + "/tasks",
		defaultMessage: "Failed to fetch tasks",
	}, &tasks)
	return tasks, err
}

// CreateProjectTask はプロジェクト配下にタスクを作成する。
func (c *Client) CreateProjectTask(ctx context.Context, projectID string, t model.Task) (*model.Task, error) {
	var created model.Task
	err := c.doJSON(ctx, request{
		op:             "projects.create_task",
		method:         http.MethodPost,
		path:           "/api/projects/" + escape(projectID) + "/tasks",
		body:           t,
		defaultMessage: "Failed to create task",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
