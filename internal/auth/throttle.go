package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/dlhub/internal/model"
)

// IsLoginLocked はセッションがログインロックアウト中かどうかを返す。
// ロックアウト期間が経過している場合はカウンタを遅延リセットして
// 未ロック扱いとする（期限監視のバックグラウンド処理は持たない）。
// リセットの永続化失敗はロック判定に影響させず、ログのみ残す。
func (s *Service) IsLoginLocked(sess *model.Session) bool {
	if sess.LoginAttempts < s.config.LoginAttemptsLimit {
		return false
	}
	if sess.FirstFailedLoginAt == nil {
		return false
	}

	if s.now().Sub(*sess.FirstFailedLoginAt) > s.config.LoginLockoutTime {
		sess.LoginAttempts = 0
		sess.FirstFailedLoginAt = nil
		if err := s.sessionRepo.ClearFailedLogins(context.Background(), sess.ID); err != nil {
			slog.Error("failed to clear expired lockout", "session_id", sess.ID, "error", err)
		}
		return false
	}

	return true
}

// RecordFailedLogin はログイン失敗を記録する。
// カウンタの加算は単一行UPDATEでアトミックに行い、初回失敗時のみ
// ウィンドウ開始時刻を記録する。更新後の値をセッションへ反映する。
func (s *Service) RecordFailedLogin(ctx context.Context, sess *model.Session) error {
	attempts, firstFailedAt, err := s.sessionRepo.RecordFailedLogin(ctx, sess.ID, s.now())
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	sess.LoginAttempts = attempts
	sess.FirstFailedLoginAt = &firstFailedAt

	slog.Info("login failed",
		"session_id", sess.ID,
		"attempts", attempts,
		"limit", s.config.LoginAttemptsLimit)
	return nil
}

// ClearFailedLogins はログイン失敗カウンタを消去する。ログイン成功時に呼ばれる。
func (s *Service) ClearFailedLogins(ctx context.Context, sess *model.Session) error {
	if err := s.sessionRepo.ClearFailedLogins(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to clear login failures: %w", err)
	}
	sess.LoginAttempts = 0
	sess.FirstFailedLoginAt = nil
	return nil
}
