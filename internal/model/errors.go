// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 認証系の失敗（認証情報不一致・ロックアウト・CSRF不一致）は
// どの検証で失敗したかをメッセージから判別できないよう、汎用文言に揃える。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, auth, authz, integrity, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked      = "ACCOUNT_LOCKED"
	ErrCodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeAlreadyTaken       = "ALREADY_TAKEN"
	ErrCodeInvalidCSRFToken   = "INVALID_CSRF_TOKEN"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeSelfActionDenied   = "SELF_ACTION_DENIED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// ユーザー不存在とパスワード不一致で文言を変えない（列挙攻撃対策）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewAccountLockedError はログイン試行回数超過エラーを生成する。
func NewAccountLockedError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountLocked,
		Message:  "ログイン試行回数が多すぎます。15分ほど待ってから再度お試しください。",
		Category: "auth",
		Action:   "しばらく待ってから再度ログインしてください。",
	}
}

// NewEmailNotVerifiedError はメール未確認エラーを生成する。
// アカウントの存在が露呈するが、秘密情報の推測経路ではないため許容する。
func NewEmailNotVerifiedError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailNotVerified,
		Message:  "先にメールアドレスを確認してください。",
		Category: "auth",
		Action:   "登録時に送信された確認メールのリンクを開いてください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
// 認証系と異なり、フィールドを特定した文言を許容する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewAlreadyTakenError は登録時の一意性違反エラーを生成する。
// ユーザー名とメールのどちらが衝突したかは明かさない（列挙攻撃対策）。
func NewAlreadyTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyTaken,
		Message:  "このユーザー名またはメールアドレスは既に使用されています。",
		Category: "integrity",
		Action:   "別のユーザー名またはメールアドレスをお試しください。",
	}
}

// NewInvalidCSRFTokenError はCSRFトークン不一致エラーを生成する。
// トークンの欠落と不一致で文言を変えない。
func NewInvalidCSRFTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCSRFToken,
		Message:  "セキュリティトークンが無効です。ページを再読み込みしてください。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewSelfActionDeniedError は管理者の自己対象操作エラーを生成する。
func NewSelfActionDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfActionDenied,
		Message:  "自分自身のアカウントに対してこの操作は実行できません。",
		Category: "validation",
		Action:   "他の管理者に依頼してください。",
	}
}

// NewNotFoundError は対象リソース未検出エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%sが見つかりません。", resource),
		Category: "validation",
		Action:   "IDを確認してください。",
	}
}

// NewInternalError はインフラ障害などの内部エラーを生成する。
// 詳細はログにのみ記録し、ユーザーには汎用文言を返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
