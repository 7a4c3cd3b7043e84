// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/dlhub/internal/auth"
	"github.com/hitoshi/dlhub/internal/category"
	"github.com/hitoshi/dlhub/internal/comment"
	"github.com/hitoshi/dlhub/internal/config"
	"github.com/hitoshi/dlhub/internal/database"
	"github.com/hitoshi/dlhub/internal/download"
	"github.com/hitoshi/dlhub/internal/handler"
	"github.com/hitoshi/dlhub/internal/logger"
	"github.com/hitoshi/dlhub/internal/mailer"
	"github.com/hitoshi/dlhub/internal/metrics"
	"github.com/hitoshi/dlhub/internal/middleware"
	"github.com/hitoshi/dlhub/internal/repository"
	"github.com/hitoshi/dlhub/internal/security"
	"github.com/hitoshi/dlhub/internal/session"
	"github.com/hitoshi/dlhub/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, false)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DebugMode {
		logger.SetupDefault(w, true)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	downloadRepo := repository.NewPostgresDownloadRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 3. セキュリティ・計測・メールの初期化
	linkValidator := security.NewLinkValidator()
	sanitizer := security.NewCommentSanitizer()
	collector := metrics.NewCollector()

	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPKey,
		From:     cfg.MailFrom,
		BaseURL:  cfg.BaseURL,
		SiteName: cfg.SiteName,
	})

	// 4. セッションマネージャの初期化
	sessionMgr := session.NewManager(sessionRepo, session.Config{
		CookieName:    cfg.SessionName,
		Lifetime:      cfg.SessionLifetime,
		RegenInterval: cfg.SessionRegenInterval,
		CookieSecure:  cfg.CookieSecure,
		CookieDomain:  cfg.CookieDomain,
	})

	// 5. ドメインサービスの初期化
	authService := auth.NewService(userRepo, sessionRepo, smtpMailer, collector, auth.Config{
		PasswordMinLength:  cfg.PasswordMinLength,
		LoginAttemptsLimit: cfg.LoginAttemptsLimit,
		LoginLockoutTime:   cfg.LoginLockoutTime,
	})
	downloadService := download.NewService(downloadRepo, categoryRepo, linkValidator)
	categoryService := category.NewService(categoryRepo)
	commentService := comment.NewService(commentRepo, downloadRepo, userRepo, sanitizer)
	userService := user.NewService(userRepo, sessionRepo, downloadRepo, commentRepo)

	// 6. レートリミッタの初期化（req/min -> req/sec に変換）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		SessionManager:    sessionMgr,
		CSRFValidator:     authService,
		CSRFFieldName:     cfg.CSRFFieldName,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		HTTPMetrics:       collector,
		MetricsHandler:    collector.Handler(),

		AuthService:     authService,
		UserService:     userService,
		ProfileService:  userService,
		DownloadService: downloadService,
		DownloadAdmin:   downloadService,
		CategoryService: categoryService,
		CategoryAdmin:   categoryService,
		CommentService:  commentService,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
