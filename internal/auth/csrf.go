package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/hitoshi/dlhub/internal/model"
)

// EnsureCSRFToken はセッションのCSRFトークンを返す。
// 未設定の場合のみ新しいトークンを生成して永続化する（遅延生成）。
// トークンはセッションの生存期間中は固定で、ログイン前後でも変わらない。
func (s *Service) EnsureCSRFToken(ctx context.Context, sess *model.Session) (string, error) {
	if sess.CSRFToken != "" {
		return sess.CSRFToken, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	if err := s.sessionRepo.UpdateCSRFToken(ctx, sess.ID, token); err != nil {
		return "", fmt.Errorf("failed to save CSRF token: %w", err)
	}
	sess.CSRFToken = token
	return token, nil
}

// ValidateCSRFToken は提出されたトークンをセッションのトークンと照合する。
// 比較は定数時間で行い、タイミング攻撃によるトークン推測を防ぐ。
// セッション側・提出側いずれかが空の場合は常に不一致とする。
func (s *Service) ValidateCSRFToken(sess *model.Session, candidate string) bool {
	if sess == nil || sess.CSRFToken == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(candidate)) == 1
}
