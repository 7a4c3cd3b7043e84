package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/dlhub/internal/model"
)

// csrfHeaderName はリクエストヘッダーからCSRFトークンを読み取る際のヘッダー名。
const csrfHeaderName = "X-CSRF-Token"

// CSRFValidator は提出されたトークンをセッションのトークンと照合する
// インターフェース。auth.Serviceの部分集合として定義する。
type CSRFValidator interface {
	ValidateCSRFToken(sess *model.Session, candidate string) bool
}

// NewCSRFMiddleware はセッション連動のCSRFトークン検証ミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）は検証をスキップする。
// 状態変更メソッドはフォームフィールドまたはX-CSRF-Tokenヘッダーの
// トークンがセッションのトークンと一致しなければ403を返す。
// 欠落と不一致は同じレスポンスで、本処理には一切到達しない。
// セッションミドルウェアの後に配置する。
func NewCSRFMiddleware(validator CSRFValidator, fieldName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := SessionFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusForbidden, model.NewInvalidCSRFTokenError())
				return
			}

			candidate := r.PostFormValue(fieldName)
			if candidate == "" {
				candidate = r.Header.Get(csrfHeaderName)
			}

			if !validator.ValidateCSRFToken(sess, candidate) {
				slog.Warn("CSRF validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewInvalidCSRFTokenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
