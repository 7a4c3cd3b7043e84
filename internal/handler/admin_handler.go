package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dlhub/internal/middleware"
	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/user"
)

// UserServiceInterface は管理ハンドラーが必要とするユーザーサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	ChangeRole(ctx context.Context, actor *model.Session, targetID, role string) error
	Delete(ctx context.Context, actor *model.Session, targetID string) error
	Stats(ctx context.Context) (*user.DashboardStats, error)
}

// DownloadAdminInterface は管理ハンドラーが必要とするダウンロード管理インターフェース。
type DownloadAdminInterface interface {
	Create(ctx context.Context, d *model.Download) (*model.Download, error)
	Update(ctx context.Context, d *model.Download) error
	Delete(ctx context.Context, id string) error
}

// CategoryAdminInterface は管理ハンドラーが必要とするカテゴリ管理インターフェース。
type CategoryAdminInterface interface {
	Create(ctx context.Context, category *model.Category) (*model.Category, error)
}

// AdminHandler は管理者専用のHTTPハンドラー。
// 認可はRequireAdminミドルウェアで済んでいる前提で、各操作の
// 追加制約（自己対象の拒否など）はサービス層で検証する。
type AdminHandler struct {
	users      UserServiceInterface
	downloads  DownloadAdminInterface
	categories CategoryAdminInterface
	comments   CommentServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(users UserServiceInterface, downloads DownloadAdminInterface, categories CategoryAdminInterface, comments CommentServiceInterface) *AdminHandler {
	return &AdminHandler{
		users:      users,
		downloads:  downloads,
		categories: categories,
		comments:   comments,
	}
}

// Stats はダッシュボード用の集計値を返す。
// GET /admin/api/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListUsers は全ユーザー一覧を返す。
// GET /admin/api/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		items = append(items, u.Public())
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": items})
}

// changeRoleRequest はロール変更のリクエストボディ。
type changeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeUserRole は指定ユーザーのロールを変更する。
// PUT /admin/api/users/{id}/role
func (h *AdminHandler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	if err := h.users.ChangeRole(r.Context(), sess, chi.URLParam(r, "id"), req.Role); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser は指定ユーザーを削除する。
// DELETE /admin/api/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	if err := h.users.Delete(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListComments は全コメントを返す（モデレーション用）。
// GET /admin/api/comments
func (h *AdminHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": toCommentResponses(comments)})
}

// downloadRequest はダウンロード項目作成・更新のリクエストボディ。
type downloadRequest struct {
	CategoryID      string `json:"category_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	FileSize        string `json:"file_size"`
	FileType        string `json:"file_type"`
	DownloadLink    string `json:"download_link"`
	AlternativeLink string `json:"alternative_link"`
}

// CreateDownload はダウンロード項目を作成する。
// POST /admin/api/downloads
func (h *AdminHandler) CreateDownload(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	d := &model.Download{
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		FileSize:        req.FileSize,
		FileType:        req.FileType,
		DownloadLink:    req.DownloadLink,
		AlternativeLink: req.AlternativeLink,
		CreatedBy:       sess.UserID,
	}
	created, err := h.downloads.Create(r.Context(), d)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": created.ID})
}

// UpdateDownload はダウンロード項目を更新する。
// PUT /admin/api/downloads/{id}
func (h *AdminHandler) UpdateDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	d := &model.Download{
		ID:              chi.URLParam(r, "id"),
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		FileSize:        req.FileSize,
		FileType:        req.FileType,
		DownloadLink:    req.DownloadLink,
		AlternativeLink: req.AlternativeLink,
	}
	if err := h.downloads.Update(r.Context(), d); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDownload はダウンロード項目を削除する。
// DELETE /admin/api/downloads/{id}
func (h *AdminHandler) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	if err := h.downloads.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// createCategoryRequest はカテゴリ作成のリクエストボディ。
type createCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CreateCategory はカテゴリを作成する。
// POST /admin/api/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	category, err := h.categories.Create(r.Context(), &model.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}
