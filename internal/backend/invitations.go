package backend

import (
	"context"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ListInvitations はプロジェクトの招待一覧を取得する。
func (c *Client) ListInvitations(ctx context.Context, projectID string) ([]model.Invitation, error) {
	var invitations []model.Invitation
	err := c.doJSON(ctx, request{
		op:             "invitations.list",
		method:         http.MethodGet,
		path:           "/api/invitations/project/" + escape(projectID),
		defaultMessage: "Failed to fetch invitations",
	}, &invitations)
	return invitations, err
}

// CreateInvitation は招待を作成する。
func (c *Client) CreateInvitation(ctx context.Context, inv model.Invitation) (*model.Invitation, error) {
	var created model.Invitation
	err := c.doJSON(ctx, request{
		op:             "invitations.create",
		method:         http.MethodPost,
		path:           "/api/invitations",
		body:           inv,
		defaultMessage: "Failed to send invitation",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteInvitation は招待を取り消す。
func (c *Client) DeleteInvitation(ctx context.Context, id string) error {
	return c.doJSON(ctx, request{
		op:             "invitations.delete",
		method:         http.MethodDelete,
		path:           "/api/invitations/" + escape(id),
		defaultMessage: "Failed to delete invitation",
	}, nil)
}

// invitationEmailRequest は招待メール送信のリクエストボディ。
type invitationEmailRequest struct {
	ToEmail   string   `json:"toEmail"`
	ProjectID model.ID `json:"projectId"`
}

// SendInvitationEmail は招待メールを送信する。招待の再送にも使う。
func (c *Client) SendInvitationEmail(ctx context.Context, toEmail, projectID string) error {
	return c.doJSON(ctx, request{
		op:     "emails.invitation",
		method: http.MethodPost,
		path:   "/api/emails/invitation",
		body: invitationEmailRequest{
			ToEmail:   toEmail,
			ProjectID: model.ID(projectID),
		},
		defaultMessage: "Failed to send invitation email",
	}, nil)
}
