package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dlhub/internal/middleware"
	"github.com/hitoshi/dlhub/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionManager    *session.Manager
	CSRFValidator     middleware.CSRFValidator
	CSRFFieldName     string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetrics
	MetricsHandler    http.Handler

	// サービス
	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	ProfileService  ProfileServiceInterface
	DownloadService DownloadServiceInterface
	DownloadAdmin   DownloadAdminInterface
	CategoryService CategoryServiceInterface
	CategoryAdmin   CategoryAdminInterface
	CommentService  CommentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → Recovery → Logging → CORS → RateLimit(General) → Session → CSRF
//
// セッションミドルウェアは全ルートに適用され、匿名リクエストにもセッションを発行する。
// CSRF検証は状態変更メソッドのみに働く。/healthと/metricsはチェーンの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	authHandler := NewAuthHandler(deps.AuthService, deps.ProfileService, deps.SessionManager, deps.CSRFFieldName)
	userHandler := NewUserHandler(deps.ProfileService)
	downloadHandler := NewDownloadHandler(deps.DownloadService, deps.CategoryService)
	commentHandler := NewCommentHandler(deps.CommentService)
	adminHandler := NewAdminHandler(deps.UserService, deps.DownloadAdmin, deps.CategoryAdmin, deps.CommentService)

	// 運用エンドポイント（セッション・CSRFの対象外）
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewRecoveryMiddleware())
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewSessionMiddleware(deps.SessionManager))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFValidator, deps.CSRFFieldName))

		// 認証
		r.Route("/auth", func(r chi.Router) {
			// ログイン・登録は認証専用のレート制限を追加
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/register", authHandler.Register)

			r.Post("/logout", authHandler.Logout)
			r.Get("/verify-email", authHandler.VerifyEmail)
			r.Get("/me", authHandler.Me)
			r.Get("/csrf-token", authHandler.CSRFToken)
		})

		// 公開API
		r.Route("/api", func(r chi.Router) {
			r.Route("/downloads", func(r chi.Router) {
				r.Get("/", downloadHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", downloadHandler.Get)
					r.Post("/download", downloadHandler.Download)
					r.Get("/comments", commentHandler.ListByDownload)

					// コメント投稿はログイン必須
					r.With(middleware.NewRequireLoginMiddleware()).Post("/comments", commentHandler.Create)
				})
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", downloadHandler.ListCategories)
				r.Get("/{id}/downloads", downloadHandler.ListByCategory)
			})

			// ログイン必須のルート
			r.Group(func(r chi.Router) {
				r.Use(middleware.NewRequireLoginMiddleware())

				r.Delete("/comments/{id}", commentHandler.Delete)
				r.Put("/users/me/profile", userHandler.UpdateProfile)
			})
		})

		// 管理者API
		r.Route("/admin/api", func(r chi.Router) {
			r.Use(middleware.NewRequireAdminMiddleware())

			r.Get("/stats", adminHandler.Stats)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminHandler.ListUsers)
				r.Put("/{id}/role", adminHandler.ChangeUserRole)
				r.Delete("/{id}", adminHandler.DeleteUser)
			})

			r.Route("/downloads", func(r chi.Router) {
				r.Post("/", adminHandler.CreateDownload)
				r.Put("/{id}", adminHandler.UpdateDownload)
				r.Delete("/{id}", adminHandler.DeleteDownload)
			})

			r.Get("/comments", adminHandler.ListComments)
			r.Post("/categories", adminHandler.CreateCategory)
		})
	})

	return r
}
