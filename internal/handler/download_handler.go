package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dlhub/internal/model"
)

// DownloadServiceInterface はダウンロードハンドラーが必要とするサービスインターフェース。
type DownloadServiceInterface interface {
	List(ctx context.Context, sort string, limit, offset int) ([]model.DownloadWithMeta, error)
	ListByCategory(ctx context.Context, categoryID string) (*model.Category, []model.DownloadWithMeta, error)
	Get(ctx context.Context, id string) (*model.DownloadWithMeta, error)
	RecordDownload(ctx context.Context, id string) (string, error)
}

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	List(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, id string) (*model.Category, error)
}

// DownloadHandler はダウンロード関連のHTTPハンドラー。
type DownloadHandler struct {
	downloads  DownloadServiceInterface
	categories CategoryServiceInterface
}

// NewDownloadHandler はDownloadHandlerを生成する。
func NewDownloadHandler(downloads DownloadServiceInterface, categories CategoryServiceInterface) *DownloadHandler {
	return &DownloadHandler{
		downloads:  downloads,
		categories: categories,
	}
}

// downloadResponse はダウンロード項目のAPIレスポンス。
type downloadResponse struct {
	ID              string `json:"id"`
	CategoryID      string `json:"category_id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	FileSize        string `json:"file_size"`
	FileType        string `json:"file_type"`
	AlternativeLink string `json:"alternative_link,omitempty"`
	DownloadCount   int    `json:"download_count"`
	CreatorName     string `json:"creator_name"`
	CommentCount    int    `json:"comment_count"`
	CreatedAt       string `json:"created_at"`
}

// toDownloadResponse はモデルをレスポンス形式へ変換する。
// ダウンロードリンク本体は含めない（カウント計上のため専用エンドポイントを通す）。
func toDownloadResponse(d *model.DownloadWithMeta) downloadResponse {
	return downloadResponse{
		ID:              d.ID,
		CategoryID:      d.CategoryID,
		Name:            d.Name,
		Description:     d.Description,
		FileSize:        d.FileSize,
		FileType:        d.FileType,
		AlternativeLink: d.AlternativeLink,
		DownloadCount:   d.DownloadCount,
		CreatorName:     d.CreatorName,
		CommentCount:    d.CommentCount,
		CreatedAt:       d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List はダウンロード一覧を返す。
// GET /api/downloads?sort=newest&limit=20&offset=0
func (h *DownloadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	downloads, err := h.downloads.List(r.Context(), q.Get("sort"), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]downloadResponse, 0, len(downloads))
	for i := range downloads {
		items = append(items, toDownloadResponse(&downloads[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"downloads": items})
}

// Get はダウンロード詳細を返す。
// GET /api/downloads/{id}
func (h *DownloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := h.downloads.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDownloadResponse(d))
}

// Download はダウンロード数を計上し、リンク先URLを返す。
// POST /api/downloads/{id}/download
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	url, err := h.downloads.RecordDownload(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ListCategories はカテゴリ一覧を返す。
// GET /api/categories
func (h *DownloadHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// ListByCategory は指定カテゴリのダウンロード一覧を返す。
// GET /api/categories/{id}/downloads
func (h *DownloadHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	category, downloads, err := h.downloads.ListByCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]downloadResponse, 0, len(downloads))
	for i := range downloads {
		items = append(items, toDownloadResponse(&downloads[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category":  category,
		"downloads": items,
	})
}
