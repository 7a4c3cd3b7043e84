package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dlhub/internal/middleware"
	"github.com/hitoshi/dlhub/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	ListByDownload(ctx context.Context, downloadID string) ([]model.CommentWithMeta, error)
	ListAll(ctx context.Context) ([]model.CommentWithMeta, error)
	Create(ctx context.Context, userID, downloadID, text string) (*model.Comment, error)
	Delete(ctx context.Context, id string, actor *model.Session) error
}

// CommentHandler はコメント関連のHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID           string    `json:"id"`
	DownloadID   string    `json:"download_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	DownloadName string    `json:"download_name,omitempty"`
	CommentText  string    `json:"comment_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// toCommentResponses はモデルのスライスをレスポンス形式へ変換する。
func toCommentResponses(comments []model.CommentWithMeta) []commentResponse {
	items := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		items = append(items, commentResponse{
			ID:           c.ID,
			DownloadID:   c.DownloadID,
			UserID:       c.UserID,
			Username:     c.Username,
			DownloadName: c.DownloadName,
			CommentText:  c.CommentText,
			CreatedAt:    c.CreatedAt,
		})
	}
	return items
}

// ListByDownload は指定ダウンロードのコメント一覧を返す。
// GET /api/downloads/{id}/comments
func (h *CommentHandler) ListByDownload(w http.ResponseWriter, r *http.Request) {
	downloadID := chi.URLParam(r, "id")

	comments, err := h.service.ListByDownload(r.Context(), downloadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"comments": toCommentResponses(comments)})
}

// createCommentRequest はコメント投稿のリクエストボディ。
type createCommentRequest struct {
	CommentText string `json:"comment_text"`
}

// Create はコメントを投稿する（ログイン必須）。
// POST /api/downloads/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil || !sess.IsLoggedIn() {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	comment, err := h.service.Create(r.Context(), sess.UserID, chi.URLParam(r, "id"), req.CommentText)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{
		ID:          comment.ID,
		DownloadID:  comment.DownloadID,
		UserID:      comment.UserID,
		CommentText: comment.CommentText,
		CreatedAt:   comment.CreatedAt,
	})
}

// Delete はコメントを削除する（投稿者本人または管理者のみ）。
// DELETE /api/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil || !sess.IsLoggedIn() {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), sess); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
