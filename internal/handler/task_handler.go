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

// TaskAPI はタスク関連のバックエンドAPI。
type TaskAPI interface {
	ListTasks(ctx context.Context, projectID string) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, t model.Task) (*model.Task, error)
	UpdateTaskStatus(ctx context.Context, id, status string) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// TaskHandler はタスクAPIのHTTPハンドラー。
type TaskHandler struct {
	responder
	api       TaskAPI
	sanitizer security.TextSanitizer
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(api TaskAPI, sanitizer security.TextSanitizer, session middleware.SessionConfig, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		responder: responder{session: session, logger: logger},
		api:       api,
		sanitizer: sanitizer,
	}
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

// List はタスク一覧を返す。projectIdクエリで絞り込める。
// GET /api/tasks?projectId=
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.api.ListTasks(r.Context(), r.URL.Query().Get("projectId"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch tasks")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

// Get はタスクを返す。
// GET /api/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.api.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Create はタスクを作成する。titleとassignedToは必須。
// POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeTask(w, r, h.sanitizer)
	if !ok {
		return
	}
	if t.CreatedBy == "" {
		t.CreatedBy = sessionEmail(r)
	}

	created, err := h.api.CreateTask(r.Context(), t)
	if err != nil {
		h.backendError(w, r, err, "Failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update はタスクを更新する。
// PUT /api/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeTask(w, r, h.sanitizer)
	if !ok {
		return
	}

	updated, err := h.api.UpdateTask(r.Context(), chi.URLParam(r, "id"), t)
	if err != nil {
		h.backendError(w, r, err, "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpdateStatus はタスクのステータスのみを更新する。
// PATCH /api/tasks/{id}/status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req taskStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Status is required"))
		return
	}

	updated, err := h.api.UpdateTaskStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.backendError(w, r, err, "Failed to update task status")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.backendError(w, r, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeTask はタスクのフォームを読み込み、無害化と必須チェックを行う。
func decodeTask(w http.ResponseWriter, r *http.Request, sanitizer security.TextSanitizer) (model.Task, bool) {
	var t model.Task
	if err := decodeJSON(w, r, &t); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return t, false
	}

	t.Title = sanitizer.Sanitize(t.Title)
	t.Description = sanitizer.Sanitize(t.Description)
	t.AssignedTo = strings.TrimSpace(t.AssignedTo)
	if t.Title == "" || t.AssignedTo == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Title and assignee are required"))
		return t, false
	}
	return t, true
}
