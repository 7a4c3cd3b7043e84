// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/dlhub/internal/middleware"
	"github.com/hitoshi/dlhub/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// statusForError はAPIエラーコードをHTTPステータスコードへ対応付ける。
var statusForError = map[string]int{
	model.ErrCodeInvalidCredentials: http.StatusUnauthorized,
	model.ErrCodeAccountLocked:      http.StatusTooManyRequests,
	model.ErrCodeEmailNotVerified:   http.StatusForbidden,
	model.ErrCodeValidation:         http.StatusBadRequest,
	model.ErrCodeAlreadyTaken:       http.StatusConflict,
	model.ErrCodeInvalidCSRFToken:   http.StatusForbidden,
	model.ErrCodeUnauthorized:       http.StatusUnauthorized,
	model.ErrCodeSelfActionDenied:   http.StatusForbidden,
	model.ErrCodeNotFound:           http.StatusNotFound,
	model.ErrCodeInternal:           http.StatusInternalServerError,
}

// writeServiceError はサービス層のエラーをHTTPレスポンスへ変換する。
// APIErrorはコードに応じたステータスで返し、それ以外は詳細をログに残して
// 汎用の500レスポンスを返す。
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		status, ok := statusForError[apiErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		middleware.WriteErrorResponse(w, status, apiErr)
		return
	}

	slog.Error("unexpected service error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
