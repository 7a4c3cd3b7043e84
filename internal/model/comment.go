package model

import "time"

// CommentMaxLength はコメント本文の最大長。
const CommentMaxLength = 2000

// Comment はダウンロードへのコメントを表す。
// 本文は保存前にサニタイズ済みのプレーンテキスト。
type Comment struct {
	ID          string
	DownloadID  string
	UserID      string
	CommentText string
	CreatedAt   time.Time
}

// CommentWithMeta はコメントに投稿者名とダウンロード名を結合したもの。
// 一覧表示およびモデレーション画面で使用する。
type CommentWithMeta struct {
	Comment
	Username     string
	DownloadName string
}
