package backend

import (
	"context"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ListComments はタスクのコメント一覧を取得する。
func (c *Client) ListComments(ctx context.Context, taskID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := c.doJSON(ctx, request{
		op:             "comments.list",
		method:         http.MethodGet,
		path:           "/api/comments/task/" + escape(taskID),
		defaultMessage: "Failed to fetch comments",
	}, &comments)
	return comments, err
}

// CreateComment はコメントを作成する。
func (c *Client) CreateComment(ctx context.Context, cm model.Comment) (*model.Comment, error) {
	var created model.Comment
	err := c.doJSON(ctx, request{
		op:             "comments.create",
		method:         http.MethodPost,
		path:           "/api/comments",
		body:           cm,
		defaultMessage: "Failed to add comment",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateComment はコメントを更新する。
func (c *Client) UpdateComment(ctx context.Context, id string, cm model.Comment) (*model.Comment, error) {
	var updated model.Comment
	err := c.doJSON(ctx, request{
		op:             "comments.update",
		method:         http.MethodPut,
		path:           "/api/comments/" + escape(id),
		body:           cm,
		defaultMessage: "Failed to update comment",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteComment はコメントを削除する。
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.doJSON(ctx, request{
		op:             "comments.delete",
		method:         http.MethodDelete,
		path:           "/api/comments/" + escape(id),
		defaultMessage: "Failed to delete comment",
	}, nil)
}

// AddReaction はコメントにリアクションを追加する。
// バックエンドが更新後のコメントを返した場合はそれを返し、ボディが空の場合はnilを返す。
func (c *Client) AddReaction(ctx context.Context, commentID string, rc model.Reaction) (*model.Comment, error) {
	var updated *model.Comment
	err := c.doJSON(ctx, request{
		op:             "comments.react",
		method:         http.MethodPost,
		path:           "/api/comments/" + escape(commentID) + "/reactions",
		body:           rc,
		defaultMessage: "Failed to add reaction",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
