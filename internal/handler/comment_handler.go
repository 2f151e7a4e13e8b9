package handler

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/security"
)

// CommentAPI はコメント関連のバックエンドAPI。
type CommentAPI interface {
	ListComments(ctx context.Context, taskID string) ([]model.Comment, error)
	CreateComment(ctx context.Context, cm model.Comment) (*model.Comment, error)
	UpdateComment(ctx context.Context, id string, cm model.Comment) (*model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	AddReaction(ctx context.Context, commentID string, rc model.Reaction) (*model.Comment, error)
}

// maxReactionLength はリアクション（絵文字）の最大バイト数。
const maxReactionLength = 32

// CommentHandler はコメントAPIのHTTPハンドラー。
// コメント本文は送信時とバックエンドから返却された時の両方で無害化する。
type CommentHandler struct {
	responder
	api       CommentAPI
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(api CommentAPI, sanitizer security.TextSanitizer, session middleware.SessionConfig, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		responder: responder{session: session, logger: logger},
		api:       api,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List はタスクのコメント一覧を返す。
// sortにはnewest・oldest・reactionsを指定できる。未指定の場合はバックエンドの順序のまま返す。
// GET /api/comments/task/{taskId}
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.api.ListComments(r.Context(), chi.URLParam(r, "taskId"))
	if err != nil {
		h.backendError(w, r, err, "Failed to fetch comments")
		return
	}
	for i := range comments {
		comments[i].Content = h.sanitizer.Sanitize(comments[i].Content)
	}
	sortComments(comments, r.URL.Query().Get("sort"))
	writeJSON(w, http.StatusOK, nonNil(comments))
}

// React はコメントにリアクションを追加する。リアクションしたユーザーはサインイン中のメールアドレス。
// POST /api/comments/{id}/reactions
func (h *CommentHandler) React(w http.ResponseWriter, r *http.Request) {
	var rc model.Reaction
	if err := decodeJSON(w, r, &rc); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	rc.Reaction = strings.TrimSpace(rc.Reaction)
	if rc.Reaction == "" || len(rc.Reaction) > maxReactionLength {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Reaction is required"))
		return
	}
	rc.User = sessionEmail(r)

	updated, err := h.api.AddReaction(r.Context(), chi.URLParam(r, "id"), rc)
	if err != nil {
		h.backendError(w, r, err, "Failed to add reaction")
		return
	}
	if updated == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	updated.Content = h.sanitizer.Sanitize(updated.Content)
	writeJSON(w, http.StatusOK, updated)
}

// Create はコメントを作成する。空のコメントは受け付けない。
// createdAtは作成時刻（ISO 8601）、createdByは未指定ならサインイン中のメールアドレス。
// POST /api/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	cm, ok := h.decodeComment(w, r)
	if !ok {
		return
	}
	cm.CreatedAt = h.now().UTC().Format(time.RFC3339)
	if cm.CreatedBy == "" {
		cm.CreatedBy = sessionEmail(r)
	}

	created, err := h.api.CreateComment(r.Context(), cm)
	if err != nil {
		h.backendError(w, r, err, "Failed to add comment")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update はコメントを更新する。
// PUT /api/comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	cm, ok := h.decodeComment(w, r)
	if !ok {
		return
	}

	updated, err := h.api.UpdateComment(r.Context(), chi.URLParam(r, "id"), cm)
	if err != nil {
		h.backendError(w, r, err, "Failed to update comment")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete はコメントを削除する。
// DELETE /api/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.backendError(w, r, err, "Failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CommentHandler) decodeComment(w http.ResponseWriter, r *http.Request) (model.Comment, bool) {
	var cm model.Comment
	if err := decodeJSON(w, r, &cm); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return cm, false
	}

	cm.Content = h.sanitizer.Sanitize(cm.Content)
	if cm.Content == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Comment cannot be empty"))
		return cm, false
	}
	return cm, true
}

// sortComments はコメントを並べ替える。同順位は元の順序を保つ。
//   - newest: createdAtの新しい順
//   - oldest: createdAtの古い順
//   - reactions: リアクション総数の多い順
func sortComments(comments []model.Comment, by string) {
	switch by {
	case "newest":
		slices.SortStableFunc(comments, func(a, b model.Comment) int {
			return compareCreatedAt(b, a)
		})
	case "oldest":
		slices.SortStableFunc(comments, compareCreatedAt)
	case "reactions":
		slices.SortStableFunc(comments, func(a, b model.Comment) int {
			return cmp.Compare(b.Reactions.Count(), a.Reactions.Count())
		})
	}
}

// compareCreatedAt はcreatedAtを時刻として比較する。パースできない場合は文字列として比較する。
func compareCreatedAt(a, b model.Comment) int {
	ta, errA := time.Parse(time.RFC3339, a.CreatedAt)
	tb, errB := time.Parse(time.RFC3339, b.CreatedAt)
	if errA != nil || errB != nil {
		return strings.Compare(a.CreatedAt, b.CreatedAt)
	}
	return ta.Compare(tb)
}
