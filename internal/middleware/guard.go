package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
)

// loginPath は未ログイン時のリダイレクト先。
const loginPath = "/login"

// NewRequireLoginMiddleware はログイン必須ページのガードを返す。
// 未ログインの場合はログインページへ303でリダイレクトし、
// 元のパスをredirectパラメータで引き継ぐ。本処理には到達しない。
// セッションミドルウェアの後に配置する。
func NewRequireLoginMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := SessionFromContext(r.Context())
			if err != nil || !sess.IsLoggedIn() {
				target := loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRequireAdminMiddleware は管理者専用ページのガードを返す。
// 未ログインの場合はログインページへ、ログイン済みだが管理者でない場合は
// トップページへ303でリダイレクトする。レスポンスボディは持たず、
// 管理対象データの存在は露呈しない。
func NewRequireAdminMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := SessionFromContext(r.Context())
			if err != nil || !sess.IsLoggedIn() {
				target := loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			if !sess.IsAdmin() {
				slog.Warn("admin access denied",
					slog.String("user_id", sess.UserID),
					slog.String("path", r.URL.Path),
				)
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
