// Package security はアプリケーションのセキュリティ機能を提供する。
//
// CommentSanitizerService はコメント本文をサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayのStrictPolicyにより全HTMLタグを除去し、
// プレーンテキストのみを保存する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// CommentSanitizerService はコメント本文のサニタイズ機能のインターフェースを定義する。
// コメント保存前に使用される。
type CommentSanitizerService interface {
	// Sanitize はコメント本文から全HTMLタグを除去し、
	// 前後の空白をトリムしたプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// commentSanitizer はCommentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type commentSanitizer struct {
	policy *bluemonday.Policy
}

// NewCommentSanitizer はCommentSanitizerServiceの新しいインスタンスを生成する。
// コメントは装飾なしのプレーンテキストとして扱うため、
// 許可リストが空のStrictPolicyを使用する。
func NewCommentSanitizer() *commentSanitizer {
	return &commentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はコメント本文から全HTMLタグを除去する。
// bluemondayはタグ除去後にエンティティをエスケープ済み形式で返すため、
// 保存形式をプレーンテキストに揃えるべくアンエスケープしてから返す。
func (s *commentSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ CommentSanitizerService = (*commentSanitizer)(nil)
