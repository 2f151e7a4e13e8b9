package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
)

// PageAPI はページのビューモデル組み立てに必要なバックエンドAPI。
type PageAPI interface {
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
	RecentProjects(ctx context.Context) ([]model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjectTasks(ctx context.Context, projectID string) ([]model.Task, error)
	ListMembers(ctx context.Context, projectID string) ([]model.Member, error)
	ListInvitations(ctx context.Context, projectID string) ([]model.Invitation, error)
}

// PageHandler は各画面のビューモデルを返すHTTPハンドラー。
type PageHandler struct {
	responder
	api PageAPI
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(api PageAPI, session middleware.SessionConfig, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		responder: responder{session: session, logger: logger},
		api:       api,
	}
}

type landingView struct {
	View          string `json:"view"`
	Authenticated bool   `json:"authenticated"`
}

type formView struct {
	View     string `json:"view"`
	Redirect string `json:"redirect,omitempty"`
}

type dashboardView struct {
	View           string               `json:"view"`
	User           meResponse           `json:"user"`
	Stats          model.DashboardStats `json:"stats"`
	RecentProjects []model.Project      `json:"recentProjects"`
}

type projectsView struct {
	View     string          `json:"view"`
	Projects []model.Project `json:"projects"`
}

type projectView struct {
	View        string             `json:"view"`
	Project     model.Project      `json:"project"`
	Tasks       []model.Task       `json:"tasks"`
	Members     []model.Member     `json:"members"`
	Invitations []model.Invitation `json:"invitations"`
}

// Landing はトップページ。認証状態に関わらず表示する。
// GET /
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	_, authenticated := currentSession(r)
	writeJSON(w, http.StatusOK, landingView{View: "landing", Authenticated: authenticated})
}

// SignIn はサインイン画面。redirectパラメータはサインイン後の遷移先として引き継ぐ。
// GET /signin
func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formView{
		View:     "signin",
		Redirect: security.SafeRedirect(r.URL.Query().Get("redirect"), ""),
	})
}

// SignUp はサインアップ画面。
// GET /signup
func (h *PageHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formView{
		View:     "signup",
		Redirect: security.SafeRedirect(r.URL.Query().Get("redirect"), ""),
	})
}

// Dashboard は集計値と最近のプロジェクトを表示する。
// GET /dashboard
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session, _ := currentSession(r)

	stats, err := h.api.DashboardStats(r.Context())
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch dashboard data")
		return
	}
	recent, err := h.api.RecentProjects(r.Context())
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch recent projects")
		return
	}

	writeJSON(w, http.StatusOK, dashboardView{
		View:           "dashboard",
		User:           toMeResponse(session),
		Stats:          *stats,
		RecentProjects: nonNil(recent),
	})
}

// Projects はプロジェクト一覧を表示する。
// GET /projects
func (h *PageHandler) Projects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.api.ListProjects(r.Context())
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch projects")
		return
	}
	writeJSON(w, http.StatusOK, projectsView{View: "projects", Projects: nonNil(projects)})
}

// Project はプロジェクト詳細（タスク・メンバー・招待を含む）を表示する。
// GET /projects/{id}
func (h *PageHandler) Project(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	project, err := h.api.GetProject(ctx, id)
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch project")
		return
	}
	tasks, err := h.api.ListProjectTasks(ctx, id)
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch tasks")
		return
	}
	members, err := h.api.ListMembers(ctx, id)
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch members")
		return
	}
	invitations, err := h.api.ListInvitations(ctx, id)
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch invitations")
		return
	}

	writeJSON(w, http.StatusOK, projectView{
		View:        "project",
		Project:     *project,
		Tasks:       nonNil(tasks),
		Members:     nonNil(members),
		Invitations: nonNil(invitations),
	})
}

func toMeResponse(s model.Session) meResponse {
	return meResponse{
		ID:       s.UserID,
		Email:    s.Email,
		FullName: s.FullName,
		Username: s.Username,
		Name:     s.Name,
	}
}

// nonNil はnilスライスを空スライスにする（JSONでnullではなく[]を返す）。
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Stats はダッシュボードの集計値を返す。
// GET /api/dashboard/stats
func (h *PageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.api.DashboardStats(r.Context())
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch dashboard data")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
