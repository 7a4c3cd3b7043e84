package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dlhub/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, description, role, email_verified, verification_token, comment_count, created_at`

// scanUser は1行分のユーザーをスキャンする。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var token sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Description, &user.Role, &user.EmailVerified, &token,
		&user.CommentCount, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if token.Valid {
		user.VerificationToken = &token.String
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// FindByUsernameOrEmail はユーザー名またはメールアドレスが識別子と一致する
// ユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`,
		identifier,
	)
	return scanUser(row)
}

// ExistsByUsernameOrEmail はユーザー名またはメールアドレスの衝突を1クエリで確認する。
func (r *PostgresUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		username, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	var token sql.NullString
	if user.VerificationToken != nil {
		token = sql.NullString{String: *user.VerificationToken, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, description, role, email_verified, verification_token, comment_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Description, user.Role, user.EmailVerified, token,
		user.CommentCount, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// VerifyEmailByToken は確認トークンを消費してメール確認を完了する。
// 確認済みユーザーのトークンには一致しないよう email_verified = FALSE を
// 明示的に条件へ含める（トークン再利用の防止）。
func (r *PostgresUserRepo) VerifyEmailByToken(ctx context.Context, token string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email_verified = TRUE, verification_token = NULL
		 WHERE verification_token = $1 AND email_verified = FALSE`,
		token,
	)
	if err != nil {
		return false, fmt.Errorf("failed to verify email: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// List は全ユーザーを作成日時降順で返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		var token sql.NullString
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.Description, &user.Role, &user.EmailVerified, &token,
			&user.CommentCount, &user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if token.Valid {
			user.VerificationToken = &token.String
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateRole は指定ユーザーのロールを更新する。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id, role string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE id = $2`,
		role, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// UpdateDescription はプロフィール説明文を更新する。
func (r *PostgresUserRepo) UpdateDescription(ctx context.Context, id, description string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET description = $1 WHERE id = $2`,
		description, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update user description: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// IncrementCommentCount はコメント数カウンタを単一行UPDATEで+1する。
func (r *PostgresUserRepo) IncrementCommentCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET comment_count = comment_count + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment comment count: %w", err)
	}
	return nil
}

// DecrementCommentCount はコメント数カウンタを0を下限として-1する。
func (r *PostgresUserRepo) DecrementCommentCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement comment count: %w", err)
	}
	return nil
}

// Count は総ユーザー数を返す。
func (r *PostgresUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するコメントとセッションはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
