package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/dlhub/internal/auth"
	"github.com/hitoshi/dlhub/internal/middleware"
	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/session"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, sess *model.Session, identifier, password string) (*model.User, error)
	Register(ctx context.Context, username, email, password string) (*auth.RegisterResult, error)
	VerifyEmail(ctx context.Context, token string) (bool, error)
	EnsureCSRFToken(ctx context.Context, sess *model.Session) (string, error)
}

// UserFinder は現在ユーザーの取得に必要なインターフェース。
type UserFinder interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service       AuthServiceInterface
	userFinder    UserFinder
	sessionMgr    *session.Manager
	csrfFieldName string
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, userFinder UserFinder, sessionMgr *session.Manager, csrfFieldName string) *AuthHandler {
	return &AuthHandler{
		service:       service,
		userFinder:    userFinder,
		sessionMgr:    sessionMgr,
		csrfFieldName: csrfFieldName,
	}
}

// loginRequest はログインAPIのリクエストボディ。
// identifierにはユーザー名とメールアドレスのどちらでも指定できる。
type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Redirect   string `json:"redirect"`
}

// Login は識別子とパスワードで認証する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	user, err := h.service.Login(r.Context(), sess, req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     user.Public(),
		"redirect": safeRedirect(req.Redirect),
	})
}

// registerRequest は登録APIのリクエストボディ。
type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Register は新規ユーザーを登録する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディが不正です。"))
		return
	}

	if req.Password != req.PasswordConfirm {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("パスワードが一致しません。"))
		return
	}

	result, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	body := map[string]any{
		"user":       result.User.Public(),
		"email_sent": result.EmailSent,
	}
	if !result.EmailSent {
		// 登録は成功しているため、メール送信失敗は警告として伝える
		body["warning"] = "確認メールの送信に失敗しました。時間をおいて再送をお試しください。"
	}
	writeJSON(w, http.StatusCreated, body)
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	if err := h.sessionMgr.Logout(r.Context(), w, sess); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyEmail は確認トークンを消費してメールアドレスを確認済みにする。
// GET /auth/verify-email?token=xxx
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	verified, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !verified {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("確認リンクが無効か、既に使用されています。"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "メールアドレスを確認しました。ログインできます。",
	})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil || !sess.IsLoggedIn() {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.userFinder.Get(r.Context(), sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// CSRFToken は現在のセッションのCSRFトークンを返す。
// GET /auth/csrf-token
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	token, err := h.service.EnsureCSRFToken(r.Context(), sess)
	if err != nil {
		slog.Error("failed to ensure CSRF token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"field": h.csrfFieldName,
	})
}

// safeRedirect はログイン後のリダイレクト先を検証する。
// サイト内の相対パス（先頭が"/"で"//"でない）のみを許可し、
// それ以外はトップページへ丸める（オープンリダイレクト対策）。
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	return target
}
