// Package session はCookieベースのサーバーサイドセッション管理を提供する。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/repository"
)

// Config はセッションマネージャの設定。
type Config struct {
	CookieName    string
	Lifetime      time.Duration // セッション有効期間（既定24時間）
	RegenInterval time.Duration // セッションID再生成間隔（既定30分）
	CookieSecure  bool
	CookieDomain  string
}

// Manager はセッションのライフサイクルを管理する。
// セッション本体はリポジトリ経由で永続化され、CookieはセッションIDのみを運ぶ。
type Manager struct {
	repo   repository.SessionRepository
	config Config

	// now はテストで差し替え可能な現在時刻関数。
	now func() time.Time
}

// NewManager はManagerを生成する。
func NewManager(repo repository.SessionRepository, config Config) *Manager {
	return &Manager{
		repo:   repo,
		config: config,
		now:    time.Now,
	}
}

// Init はリクエストに対応するセッションを必ず1つ用意する。
// Cookieが未設定・期限切れ・不明なIDの場合は匿名セッションを新規作成する。
// 前回の再生成から設定間隔を超えている場合はセッションIDを差し替える
// （固定化・ハイジャックの窓を限定するため）。データは差し替え後も保持される。
// セッションストアが利用できない場合はエラーを返し、処理を継続しない。
func (m *Manager) Init(ctx context.Context, w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	var sess *model.Session

	cookie, err := r.Cookie(m.config.CookieName)
	if err == nil && cookie.Value != "" {
		sess, err = m.repo.FindByID(ctx, cookie.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
	}

	now := m.now()

	if sess == nil {
		sess, err = m.create(ctx, now)
		if err != nil {
			return nil, err
		}
		m.setCookie(w, sess.ID)
		return sess, nil
	}

	// 定期的なセッションID再生成
	if now.Sub(sess.LastRegenerationAt) > m.config.RegenInterval {
		newID, err := generateSessionID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session ID: %w", err)
		}
		if err := m.repo.Rotate(ctx, sess.ID, newID, now); err != nil {
			return nil, fmt.Errorf("failed to rotate session: %w", err)
		}
		sess.ID = newID
		sess.LastRegenerationAt = now
		m.setCookie(w, sess.ID)
	}

	return sess, nil
}

// Logout はセッションの全状態を破棄する。
// サーバーサイドのセッション行を削除し、Cookieを即時失効させる。
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, sess *model.Session) error {
	if err := m.repo.DeleteByID(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	sess.UserID = ""
	sess.UserRole = ""
	sess.Username = ""
	sess.CSRFToken = ""
	sess.LoginAttempts = 0
	sess.FirstFailedLoginAt = nil

	m.expireCookie(w)
	return nil
}

// create は匿名セッションを新規作成して永続化する。
func (m *Manager) create(ctx context.Context, now time.Time) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	sess := &model.Session{
		ID:                 id,
		LastRegenerationAt: now,
		ExpiresAt:          now.Add(m.config.Lifetime),
		CreatedAt:          now,
	}

	if err := m.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

// setCookie はセッションCookieを設定する。
// HttpOnly、SameSite=Strictを常に付与し、Secureは設定に従う。
func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    id,
		Path:     "/",
		Domain:   m.config.CookieDomain,
		MaxAge:   int(m.config.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   m.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// expireCookie はセッションCookieを過去の有効期限で上書きし、即時削除する。
func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
