package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
)

// InvitationAPI は招待関連のバックエンドAPI。
type InvitationAPI interface {
	ListInvitations(ctx context.Context, projectID string) ([]model.Invitation, error)
	CreateInvitation(ctx context.Context, inv model.Invitation) (*model.Invitation, error)
	DeleteInvitation(ctx context.Context, id string) error
	SendInvitationEmail(ctx context.Context, toEmail, projectID string) error
}

// InvitationHandler は招待APIのHTTPハンドラー。
type InvitationHandler struct {
	responder
	api InvitationAPI
}

// NewInvitationHandler はInvitationHandlerを生成する。
func NewInvitationHandler(api InvitationAPI, session middleware.SessionConfig, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{
		responder: responder{session: session, logger: logger},
		api:       api,
	}
}

// invitationRequest は招待フォームの値。再送時も同じ形を使う。
type invitationRequest struct {
	Email     string   `json:"email"`
	ProjectID model.ID `json:"projectId"`
}

// invitationResponse は招待作成のAPIレスポンス。
type invitationResponse struct {
	Invitation *model.Invitation `json:"invitation"`
	EmailSent  bool              `json:"emailSent"`
}

// List はプロジェクトの招待一覧を返す。
// GET /api/invitations/project/{projectId}
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.api.ListInvitations(r.Context(), chi.URLParam(r, "projectId"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch invitations")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(invitations))
}

// Create は招待を作成し、招待メールを送信する。emailは必須。
// メール送信に失敗しても招待は作成済みのため201を返し、emailSent=falseで知らせる。
// POST /api/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInvitation(w, r)
	if !ok {
		return
	}

	created, err := h.api.CreateInvitation(r.Context(), model.Invitation{
		Email:     req.Email,
		ProjectID: req.ProjectID,
		Status:    model.InvitationPending,
	})
	if err != nil {
		h.backendError(w, r, err, "Failed to send invitation")
		return
	}

	emailSent := true
	if err := h.api.SendInvitationEmail(r.Context(), req.Email, req.ProjectID.String()); err != nil {
		emailSent = false
		h.logger.Warn("招待メールの送信に失敗しました",
			slog.String("project_id", req.ProjectID.String()),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusCreated, invitationResponse{Invitation: created, EmailSent: emailSent})
}

// Resend は招待メールを再送する。
// POST /api/invitations/{id}/resend
func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInvitation(w, r)
	if !ok {
		return
	}

	if err := h.api.SendInvitationEmail(r.Context(), req.Email, req.ProjectID.String()); err != nil {
		h.backendError(w, r, err, "Failed to resend invitation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete は招待を取り消す。
// DELETE /api/invitations/{id}
func (h *InvitationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteInvitation(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.backendError(w, r, err, "Failed to delete invitation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInvitation(w http.ResponseWriter, r *http.Request) (invitationRequest, bool) {
	var req invitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return req, false
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Email is required"))
		return req, false
	}
	return req, true
}
