package model

import "time"

// Download はダウンロード項目を表す。
// ファイル本体は保持せず、外部リンク（DownloadLink/AlternativeLink）のみを持つ。
type Download struct {
	ID              string
	CategoryID      string
	Name            string
	Description     string
	FileSize        string
	FileType        string
	DownloadLink    string
	AlternativeLink string
	DownloadCount   int
	CreatedBy       string
	CreatedAt       time.Time
}

// DownloadWithMeta はダウンロード項目に作成者名とコメント数を結合したもの。
// 一覧・詳細表示で使用する。
type DownloadWithMeta struct {
	Download
	CreatorName  string
	CommentCount int
}

// Category はダウンロードの分類を表す。
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
