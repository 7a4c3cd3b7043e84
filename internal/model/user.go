// Package model はドメインモデルを定義する。
package model

import "time"

// ユーザーのロール。
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User はポータル利用ユーザーを表す。
// PasswordHashはbcrypt（コスト12）でハッシュ化されたパスワード。
// VerificationTokenはメール確認前のみ値を持ち、確認完了時にnilへ戻る。
type User struct {
	ID                string
	Username          string
	Email             string
	PasswordHash      string
	Description       string
	Role              string
	EmailVerified     bool
	VerificationToken *string
	CommentCount      int
	CreatedAt         time.Time
}

// IsAdmin はユーザーが管理者ロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser はAPIレスポンス用のユーザー情報。
// パスワードハッシュと確認トークンは含めない。
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Description   string    `json:"description"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CommentCount  int       `json:"comment_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public はUserからPublicUserへ変換する。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Description:   u.Description,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CommentCount:  u.CommentCount,
		CreatedAt:     u.CreatedAt,
	}
}
