package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dlhub/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// ListByDownload は指定ダウンロードのコメントを投稿者名付きで新しい順に返す。
func (r *PostgresCommentRepo) ListByDownload(ctx context.Context, downloadID string) ([]model.CommentWithMeta, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.download_id, c.user_id, c.comment_text, c.created_at, u.username
		 FROM comments c
		 JOIN users u ON c.user_id = u.id
		 WHERE c.download_id = $1
		 ORDER BY c.created_at DESC`,
		downloadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentWithMeta
	for rows.Next() {
		var c model.CommentWithMeta
		if err := rows.Scan(&c.ID, &c.DownloadID, &c.UserID, &c.CommentText, &c.CreatedAt, &c.Username); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// ListAll は全コメントを投稿者名・ダウンロード名付きで新しい順に返す。
// モデレーション画面で使用する。
func (r *PostgresCommentRepo) ListAll(ctx context.Context) ([]model.CommentWithMeta, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.download_id, c.user_id, c.comment_text, c.created_at, u.username, d.name
		 FROM comments c
		 JOIN users u ON c.user_id = u.id
		 JOIN downloads d ON c.download_id = d.id
		 ORDER BY c.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list all comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentWithMeta
	for rows.Next() {
		var c model.CommentWithMeta
		if err := rows.Scan(&c.ID, &c.DownloadID, &c.UserID, &c.CommentText, &c.CreatedAt, &c.Username, &c.DownloadName); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	c := &model.Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, download_id, user_id, comment_text, created_at FROM comments WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.DownloadID, &c.UserID, &c.CommentText, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return c, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, download_id, user_id, comment_text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.DownloadID, comment.UserID, comment.CommentText, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// Count は総コメント数を返す。
func (r *PostgresCommentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// DeleteByID は指定IDのコメントを削除する。
func (r *PostgresCommentRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
