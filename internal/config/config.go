// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string
	BaseURL    string
	SiteName   string

	// Session
	SessionName          string
	SessionLifetime      time.Duration
	SessionRegenInterval time.Duration

	// Security
	CSRFFieldName     string
	PasswordMinLength int

	// Login throttle
	LoginAttemptsLimit int
	LoginLockoutTime   time.Duration

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitLogin   int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPKey  string
	MailFrom string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Debug
	DebugMode bool
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// セキュリティ関連の閾値（ロックアウト時間等）はテスト容易性のため
// すべて環境変数で上書き可能にする。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.SiteName = getEnvString("SITE_NAME", "DLHub")
	cfg.SessionName = getEnvString("SESSION_NAME", "dlhub_session")
	cfg.SessionLifetime = getEnvDuration("SESSION_LIFETIME", 24*time.Hour)
	cfg.SessionRegenInterval = getEnvDuration("SESSION_REGEN_INTERVAL", 30*time.Minute)
	cfg.CSRFFieldName = getEnvString("CSRF_FIELD_NAME", "csrf_token")
	cfg.PasswordMinLength = getEnvInt("PASSWORD_MIN_LENGTH", 8)
	cfg.LoginAttemptsLimit = getEnvInt("LOGIN_ATTEMPTS_LIMIT", 5)
	cfg.LoginLockoutTime = getEnvDuration("LOGIN_LOCKOUT_TIME", 15*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.SMTPHost = getEnvString("SMTP_HOST", "")
	cfg.SMTPPort = getEnvString("SMTP_PORT", "587")
	cfg.SMTPUser = getEnvString("SMTP_USER", "")
	cfg.SMTPKey = getEnvString("SMTP_KEY", "")
	cfg.MailFrom = getEnvString("MAIL_FROM", "noreply@localhost")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.DebugMode = getEnvBool("DEBUG_MODE", false)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
