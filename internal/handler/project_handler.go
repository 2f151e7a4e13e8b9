package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
)

// ProjectAPI はプロジェクト関連のバックエンドAPI。
type ProjectAPI interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListProjectsByUser(ctx context.Context, userID string) ([]model.Project, error)
	RecentProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, p model.Project) (*model.Project, error)
	UpdateProject(ctx context.Context, id string, p model.Project) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ListMembers(ctx context.Context, projectID string) ([]model.Member, error)
	AddMember(ctx context.Context, projectID, memberID string) error
	ListProjectTasks(ctx context.Context, projectID string) ([]model.Task, error)
	CreateProjectTask(ctx context.Context, projectID string, t model.Task) (*model.Task, error)
}

// ProjectHandler はプロジェクトAPIのHTTPハンドラー。バックエンドへの中継を行う。
type ProjectHandler struct {
	responder
	api       ProjectAPI
	sanitizer security.TextSanitizer
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(api ProjectAPI, sanitizer security.TextSanitizer, session middleware.SessionConfig, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		responder: responder{session: session, logger: logger},
		api:       api,
		sanitizer: sanitizer,
	}
}

// List はプロジェクト一覧を返す。
// GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.api.ListProjects(r.Context())
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch projects")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

// ListByUser は指定ユーザーのプロジェクト一覧を返す。
// GET /api/projects/user/{userId}
func (h *ProjectHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	projects, err := h.api.ListProjectsByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch projects")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

// Recent は最近のプロジェクトを返す。
// GET /api/projects/recent
func (h *ProjectHandler) Recent(w http.ResponseWriter, r *http.Request) {
	projects, err := h.api.RecentProjects(r.Context())
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch recent projects")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

// Get はプロジェクトを返す。
// GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.api.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Create はプロジェクトを作成する。nameは必須。createdByは未指定ならサインイン中のメールアドレス。
// POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProject(w, r)
	if !ok {
		return
	}
	if p.CreatedBy == "" {
		p.CreatedBy = sessionEmail(r)
	}

	created, err := h.api.CreateProject(r.Context(), p)
	if err != nil {
		h.backendError(w, r, err, "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update はプロジェクトを更新する。nameは必須。
// PUT /api/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProject(w, r)
	if !ok {
		return
	}

	updated, err := h.api.UpdateProject(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.backendError(w, r, err, "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete はプロジェクトを削除する。
// DELETE /api/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.backendError(w, r, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Members はプロジェクトのメンバー一覧を返す。
// GET /api/projects/{id}/members
func (h *ProjectHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.api.ListMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch members")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(members))
}

// AddMember はプロジェクトにメンバーを追加する。
// POST /api/projects/{id}/add-member?memberId=
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(r.URL.Query().Get("memberId"))
	if memberID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Member is required"))
		return
	}

	if err := h.api.AddMember(r.Context(), chi.URLParam(r, "id"), memberID); err != nil {
		h.backendError(w, r, err, "Failed to add member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tasks はプロジェクトのタスク一覧を返す。
// GET /api/projects/{id}/tasks
func (h *ProjectHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.api.ListProjectTasks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch tasks")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

// CreateTask はプロジェクトにタスクを作成する。titleとassignedToは必須。
// POST /api/projects/{id}/tasks
func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	t, ok := decodeTask(w, r, h.sanitizer)
	if !ok {
		return
	}
	t.ProjectID = model.ID(projectID)
	if t.CreatedBy == "" {
		t.CreatedBy = sessionEmail(r)
	}

	created, err := h.api.CreateProjectTask(r.Context(), projectID, t)
	if err != nil {
		h.backendError(w, r, err, "Failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// decodeProject はプロジェクトのフォームを読み込み、無害化と必須チェックを行う。
func (h *ProjectHandler) decodeProject(w http.ResponseWriter, r *http.Request) (model.Project, bool) {
	var p model.Project
	if err := decodeJSON(w, r, &p); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return p, false
	}

	p.Name = h.sanitizer.Sanitize(p.Name)
	p.Description = h.sanitizer.Sanitize(p.Description)
	if p.Name == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Project name is required"))
		return p, false
	}
	return p, true
}
