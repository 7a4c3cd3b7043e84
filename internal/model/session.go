package model

import (
	"time"

	"github.com/google/uuid"
)

// Session はCookieで識別されるサーバーサイドセッションを表す。
// UserIDが空の場合は匿名セッション。
// ログイン試行カウンタとCSRFトークンはセッション行に持ち、
// 同一ブラウザからの連続リクエストで共有される。
type Session struct {
	ID                 string
	UserID             string
	UserRole           string
	Username           string
	CSRFToken          string
	LoginAttempts      int
	FirstFailedLoginAt *time.Time
	LastRegenerationAt time.Time
	ExpiresAt          time.Time
	CreatedAt          time.Time
}

// IsLoggedIn はセッションが認証済みユーザーを持つかどうかを返す。
// UserIDが欠損・不正な形式の場合は未ログインとして扱う（匿名へのフォールバック）。
func (s *Session) IsLoggedIn() bool {
	if s == nil || s.UserID == "" {
		return false
	}
	if _, err := uuid.Parse(s.UserID); err != nil {
		return false
	}
	return true
}

// IsAdmin はセッションが管理者ユーザーを持つかどうかを返す。
// ロールはキャッシュせず、毎回セッションの値から判定する。
func (s *Session) IsAdmin() bool {
	return s.IsLoggedIn() && s.UserRole == RoleAdmin
}
