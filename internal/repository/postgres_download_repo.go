package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dlhub/internal/model"
)

// PostgresDownloadRepo はPostgreSQLを使用したダウンロードリポジトリ。
type PostgresDownloadRepo struct {
	db *sql.DB
}

// NewPostgresDownloadRepo はPostgresDownloadRepoを生成する。
func NewPostgresDownloadRepo(db *sql.DB) *PostgresDownloadRepo {
	return &PostgresDownloadRepo{db: db}
}

const downloadSelect = `
	SELECT d.id, COALESCE(d.category_id::text, ''), d.name, d.description, d.file_size, d.file_type,
	       d.download_link, d.alternative_link, d.download_count,
	       COALESCE(d.created_by::text, ''), d.created_at,
	       COALESCE(u.username, ''),
	       (SELECT COUNT(*) FROM comments c WHERE c.download_id = d.id)
	FROM downloads d
	LEFT JOIN users u ON d.created_by = u.id`

// scanDownloads は複数行のダウンロードをスキャンする。
func scanDownloads(rows *sql.Rows) ([]model.DownloadWithMeta, error) {
	var items []model.DownloadWithMeta
	for rows.Next() {
		var d model.DownloadWithMeta
		if err := rows.Scan(
			&d.ID, &d.CategoryID, &d.Name, &d.Description, &d.FileSize, &d.FileType,
			&d.DownloadLink, &d.AlternativeLink, &d.DownloadCount,
			&d.CreatedBy, &d.CreatedAt, &d.CreatorName, &d.CommentCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate downloads: %w", err)
	}
	return items, nil
}

// List はダウンロード一覧を作成者名・コメント数付きで返す。
// orderByは呼び出し側で許可リスト検証済みであること。
func (r *PostgresDownloadRepo) List(ctx context.Context, orderBy string, limit, offset int) ([]model.DownloadWithMeta, error) {
	query := downloadSelect + ` ORDER BY ` + orderBy

	var rows *sql.Rows
	var err error
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		rows, err = r.db.QueryContext(ctx, query, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	return scanDownloads(rows)
}

// ListByCategory は指定カテゴリのダウンロード一覧を新しい順に返す。
func (r *PostgresDownloadRepo) ListByCategory(ctx context.Context, categoryID string) ([]model.DownloadWithMeta, error) {
	rows, err := r.db.QueryContext(ctx,
		downloadSelect+` WHERE d.category_id = $1 ORDER BY d.created_at DESC`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads by category: %w", err)
	}
	defer rows.Close()

	return scanDownloads(rows)
}

// FindByID は指定IDのダウンロードを取得する。見つからない場合はnilを返す。
func (r *PostgresDownloadRepo) FindByID(ctx context.Context, id string) (*model.DownloadWithMeta, error) {
	var d model.DownloadWithMeta
	err := r.db.QueryRowContext(ctx,
		downloadSelect+` WHERE d.id = $1`,
		id,
	).Scan(
		&d.ID, &d.CategoryID, &d.Name, &d.Description, &d.FileSize, &d.FileType,
		&d.DownloadLink, &d.AlternativeLink, &d.DownloadCount,
		&d.CreatedBy, &d.CreatedAt, &d.CreatorName, &d.CommentCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find download: %w", err)
	}
	return &d, nil
}

// Create はダウンロード項目を作成する。
func (r *PostgresDownloadRepo) Create(ctx context.Context, d *model.Download) error {
	categoryID := sql.NullString{String: d.CategoryID, Valid: d.CategoryID != ""}
	createdBy := sql.NullString{String: d.CreatedBy, Valid: d.CreatedBy != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO downloads (id, category_id, name, description, file_size, file_type, download_link, alternative_link, download_count, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, categoryID, d.Name, d.Description, d.FileSize, d.FileType,
		d.DownloadLink, d.AlternativeLink, d.DownloadCount, createdBy, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}
	return nil
}

// Update はダウンロード項目を更新する。
func (r *PostgresDownloadRepo) Update(ctx context.Context, d *model.Download) (bool, error) {
	categoryID := sql.NullString{String: d.CategoryID, Valid: d.CategoryID != ""}
	result, err := r.db.ExecContext(ctx,
		`UPDATE downloads
		 SET category_id = $1, name = $2, description = $3, file_size = $4,
		     file_type = $5, download_link = $6, alternative_link = $7
		 WHERE id = $8`,
		categoryID, d.Name, d.Description, d.FileSize,
		d.FileType, d.DownloadLink, d.AlternativeLink, d.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update download: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// IncrementDownloadCount はダウンロード数カウンタを単一行UPDATEで+1する。
func (r *PostgresDownloadRepo) IncrementDownloadCount(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE downloads SET download_count = download_count + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to increment download count: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Stats は項目数と累計ダウンロード数を返す。
func (r *PostgresDownloadRepo) Stats(ctx context.Context) (int, int, error) {
	var count, total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(download_count), 0) FROM downloads`,
	).Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get download stats: %w", err)
	}
	return count, total, nil
}

// DeleteByID は指定IDのダウンロードを削除する。コメントはCASCADE削除される。
func (r *PostgresDownloadRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM downloads WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete download: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ DownloadRepository = (*PostgresDownloadRepo)(nil)
