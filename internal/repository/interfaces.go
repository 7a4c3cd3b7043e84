// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/dlhub/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsernameOrEmail はユーザー名またはメールアドレスが識別子と一致する
	// ユーザーを1クエリで検索する。見つからない場合はnilを返す。
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error)

	// ExistsByUsernameOrEmail はユーザー名またはメールアドレスの衝突を
	// 1クエリで確認する。どちらが衝突したかは区別しない。
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// VerifyEmailByToken は未確認ユーザーの確認トークンを消費し、
	// email_verifiedをtrueにしトークンをNULLへ戻す。1つのUPDATEで
	// アトミックに行い、実際に行が更新されたかどうかを返す。
	VerifyEmailByToken(ctx context.Context, token string) (bool, error)

	// List は全ユーザーを作成日時降順で返す（管理画面用）。
	List(ctx context.Context) ([]*model.User, error)

	// UpdateRole は指定ユーザーのロールを更新する。行が更新されたかを返す。
	UpdateRole(ctx context.Context, id, role string) (bool, error)

	// UpdateDescription はプロフィール説明文を更新する。行が更新されたかを返す。
	UpdateDescription(ctx context.Context, id, description string) (bool, error)

	// IncrementCommentCount はコメント数カウンタを単一行UPDATEで+1する。
	IncrementCommentCount(ctx context.Context, id string) error

	// DecrementCommentCount はコメント数カウンタを0を下限として-1する。
	DecrementCommentCount(ctx context.Context, id string) error

	// Count は総ユーザー数を返す。
	Count(ctx context.Context) (int, error)

	// DeleteByID は指定IDのユーザーを削除する。コメントはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// Rotate はセッションIDを差し替える。セッションデータは保持したまま
	// 識別子のみを新しい値に更新し、再生成時刻を記録する。
	Rotate(ctx context.Context, oldID, newID string, rotatedAt time.Time) error

	// UpdateAuth はログイン成功時にユーザー情報をセッションへ書き込む。
	// userIDが空の場合は匿名状態（NULL）へ戻す。
	UpdateAuth(ctx context.Context, id, userID, userRole, username string) error

	// UpdateCSRFToken はセッションのCSRFトークンを設定する。
	UpdateCSRFToken(ctx context.Context, id, token string) error

	// RecordFailedLogin は失敗カウンタを単一行UPDATEでアトミックに+1する。
	// 初回失敗時のみウィンドウ開始時刻を記録する。更新後の値を返す。
	RecordFailedLogin(ctx context.Context, id string, now time.Time) (attempts int, firstFailedAt time.Time, err error)

	// ClearFailedLogins は失敗カウンタとウィンドウ開始時刻をリセットする。
	ClearFailedLogins(ctx context.Context, id string) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// List は全カテゴリを名前昇順で返す。
	List(ctx context.Context) ([]*model.Category, error)

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) error
}

// DownloadRepository はダウンロード項目の永続化インターフェース。
type DownloadRepository interface {
	// List はダウンロード一覧を作成者名・コメント数付きで返す。
	// orderByは呼び出し側で許可リスト検証済みのORDER BY句を渡す。
	// limitが0以下の場合は全件を返す。
	List(ctx context.Context, orderBy string, limit, offset int) ([]model.DownloadWithMeta, error)

	// ListByCategory は指定カテゴリのダウンロード一覧を返す。
	ListByCategory(ctx context.Context, categoryID string) ([]model.DownloadWithMeta, error)

	// FindByID は指定IDのダウンロードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.DownloadWithMeta, error)

	// Create はダウンロード項目を作成する。
	Create(ctx context.Context, d *model.Download) error

	// Update はダウンロード項目を更新する。行が更新されたかを返す。
	Update(ctx context.Context, d *model.Download) (bool, error)

	// IncrementDownloadCount はダウンロード数カウンタを単一行UPDATEで+1する。
	// 行が存在したかどうかを返す。
	IncrementDownloadCount(ctx context.Context, id string) (bool, error)

	// Stats は項目数と累計ダウンロード数を返す（ダッシュボード用）。
	Stats(ctx context.Context) (count int, totalDownloads int, err error)

	// DeleteByID は指定IDのダウンロードを削除する。行が削除されたかを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByDownload は指定ダウンロードのコメントを新しい順に返す。
	ListByDownload(ctx context.Context, downloadID string) ([]model.CommentWithMeta, error)

	// ListAll は全コメントを新しい順に返す（モデレーション用）。
	ListAll(ctx context.Context) ([]model.CommentWithMeta, error)

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// Count は総コメント数を返す。
	Count(ctx context.Context) (int, error)

	// DeleteByID は指定IDのコメントを削除する。行が削除されたかを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}
