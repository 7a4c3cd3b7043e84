package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/dlhub/internal/middleware"
	"github.com/hitoshi/dlhub/internal/model"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Get(ctx context.Context, id string) (*model.User, error)
	UpdateDescription(ctx context.Context, id, description string) error
}

// UserHandler はユーザープロフィール関連のHTTPハンドラー。
type UserHandler struct {
	service ProfileServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service ProfileServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// updateProfileRequest はプロフィール更新のリクエストボディ。
type updateProfileRequest struct {
	Description string `json:"description"`
}

// UpdateProfile は自分のプロフィール説明文を更新する（ログイン必須）。
// PUT /api/users/me/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil || !sess.IsLoggedIn() {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	if err := h.service.UpdateDescription(r.Context(), sess.UserID, req.Description); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
