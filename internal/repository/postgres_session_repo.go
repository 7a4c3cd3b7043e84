package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/dlhub/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	userID := sql.NullString{String: session.UserID, Valid: session.UserID != ""}
	var firstFailed sql.NullTime
	if session.FirstFailedLoginAt != nil {
		firstFailed = sql.NullTime{Time: *session.FirstFailedLoginAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, user_role, username, csrf_token, login_attempts, first_failed_login_at, last_regeneration_at, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		session.ID, userID, session.UserRole, session.Username,
		session.CSRFToken, session.LoginAttempts, firstFailed,
		session.LastRegenerationAt, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var userID sql.NullString
	var firstFailed sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, user_role, username, csrf_token, login_attempts, first_failed_login_at, last_regeneration_at, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(
		&session.ID, &userID, &session.UserRole, &session.Username,
		&session.CSRFToken, &session.LoginAttempts, &firstFailed,
		&session.LastRegenerationAt, &session.ExpiresAt, &session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if userID.Valid {
		session.UserID = userID.String
	}
	if firstFailed.Valid {
		t := firstFailed.Time
		session.FirstFailedLoginAt = &t
	}
	return session, nil
}

// Rotate はセッションIDを差し替える。
// 単一行UPDATEでデータを保持したまま識別子のみ更新する。
func (r *PostgresSessionRepo) Rotate(ctx context.Context, oldID, newID string, rotatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET id = $1, last_regeneration_at = $2 WHERE id = $3`,
		newID, rotatedAt, oldID,
	)
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session not found: %s", oldID)
	}
	return nil
}

// UpdateAuth はログイン状態をセッションへ書き込む。
// userIDが空の場合は匿名状態（NULL）へ戻す。
func (r *PostgresSessionRepo) UpdateAuth(ctx context.Context, id, userID, userRole, username string) error {
	uid := sql.NullString{String: userID, Valid: userID != ""}
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = $1, user_role = $2, username = $3 WHERE id = $4`,
		uid, userRole, username, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session auth: %w", err)
	}
	return nil
}

// UpdateCSRFToken はセッションのCSRFトークンを設定する。
func (r *PostgresSessionRepo) UpdateCSRFToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET csrf_token = $1 WHERE id = $2`,
		token, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update csrf token: %w", err)
	}
	return nil
}

// RecordFailedLogin は失敗カウンタを単一行UPDATEでアトミックに+1する。
// 初回失敗時のみfirst_failed_login_atを記録し、更新後の値を返す。
// 並行リクエストによるカウンタのロストアップデートを防ぐため、
// 読み取り値からの加算ではなくDB側でインクリメントする。
func (r *PostgresSessionRepo) RecordFailedLogin(ctx context.Context, id string, now time.Time) (int, time.Time, error) {
	var attempts int
	var firstFailed time.Time
	err := r.db.QueryRowContext(ctx,
		`UPDATE sessions
		 SET login_attempts = login_attempts + 1,
		     first_failed_login_at = COALESCE(first_failed_login_at, $2)
		 WHERE id = $1
		 RETURNING login_attempts, first_failed_login_at`,
		id, now,
	).Scan(&attempts, &firstFailed)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to record failed login: %w", err)
	}
	return attempts, firstFailed, nil
}

// ClearFailedLogins は失敗カウンタとウィンドウ開始時刻をリセットする。
func (r *PostgresSessionRepo) ClearFailedLogins(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET login_attempts = 0, first_failed_login_at = NULL WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear failed logins: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
