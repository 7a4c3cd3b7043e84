// Package user はユーザー管理とプロフィールのビジネスロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/repository"
)

// descriptionMaxLength はプロフィール説明文の最大長。
const descriptionMaxLength = 1000

// Service はユーザー管理のビジネスロジックを担う。
type Service struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	downloadRepo repository.DownloadRepository
	commentRepo  repository.CommentRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, downloadRepo repository.DownloadRepository, commentRepo repository.CommentRepository) *Service {
	return &Service{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		downloadRepo: downloadRepo,
		commentRepo:  commentRepo,
	}
}

// Get は指定IDのユーザーを返す。見つからない場合はNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("ユーザー")
	}
	return user, nil
}

// List は全ユーザーを作成日時降順で返す（管理画面用）。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateDescription はプロフィール説明文を更新する（本人操作）。
func (s *Service) UpdateDescription(ctx context.Context, id, description string) error {
	if utf8.RuneCountInString(description) > descriptionMaxLength {
		return model.NewValidationError(
			fmt.Sprintf("説明文は%d文字以内で入力してください。", descriptionMaxLength))
	}

	updated, err := s.userRepo.UpdateDescription(ctx, id, description)
	if err != nil {
		return fmt.Errorf("failed to update description: %w", err)
	}
	if !updated {
		return model.NewNotFoundError("ユーザー")
	}
	return nil
}

// ChangeRole はユーザーのロールを変更する（管理者操作）。
// 操作者自身のロールは変更できない。この自己対象チェックは
// 対象の存在確認より先に行い、状態を一切変更せずに拒否する。
func (s *Service) ChangeRole(ctx context.Context, actor *model.Session, targetID, role string) error {
	if targetID == actor.UserID {
		return model.NewSelfActionDeniedError()
	}

	if role != model.RoleMember && role != model.RoleAdmin {
		return model.NewValidationError("指定されたロールは無効です。")
	}

	updated, err := s.userRepo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if !updated {
		return model.NewNotFoundError("ユーザー")
	}

	slog.Info("user role changed", "target_id", targetID, "role", role, "actor_id", actor.UserID)
	return nil
}

// Delete はユーザーを削除する（管理者操作）。操作者自身は削除できない。
// ユーザーのコメントはCASCADE削除され、全セッションも無効化する。
func (s *Service) Delete(ctx context.Context, actor *model.Session, targetID string) error {
	if targetID == actor.UserID {
		return model.NewSelfActionDeniedError()
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if target == nil {
		return model.NewNotFoundError("ユーザー")
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	if err := s.userRepo.DeleteByID(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted", "target_id", targetID, "actor_id", actor.UserID)
	return nil
}

// DashboardStats は管理ダッシュボード用の集計値。
type DashboardStats struct {
	UserCount      int `json:"user_count"`
	DownloadCount  int `json:"download_count"`
	TotalDownloads int `json:"total_downloads"`
	CommentCount   int `json:"comment_count"`
}

// Stats はダッシュボード用の集計値を返す（管理者操作）。
func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	downloadCount, totalDownloads, err := s.downloadRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get download stats: %w", err)
	}

	commentCount, err := s.commentRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	return &DashboardStats{
		UserCount:      userCount,
		DownloadCount:  downloadCount,
		TotalDownloads: totalDownloads,
		CommentCount:   commentCount,
	}, nil
}
