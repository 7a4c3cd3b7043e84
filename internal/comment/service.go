// Package comment はコメント投稿・削除・モデレーションのビジネスロジックを提供する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/repository"
	"github.com/hitoshi/dlhub/internal/security"
)

// Service はコメントのビジネスロジックを担う。
type Service struct {
	commentRepo  repository.CommentRepository
	downloadRepo repository.DownloadRepository
	userRepo     repository.UserRepository
	sanitizer    security.CommentSanitizerService
}

// NewService はServiceを生成する。
func NewService(commentRepo repository.CommentRepository, downloadRepo repository.DownloadRepository, userRepo repository.UserRepository, sanitizer security.CommentSanitizerService) *Service {
	return &Service{
		commentRepo:  commentRepo,
		downloadRepo: downloadRepo,
		userRepo:     userRepo,
		sanitizer:    sanitizer,
	}
}

// ListByDownload は指定ダウンロードのコメント一覧を新しい順に返す。
func (s *Service) ListByDownload(ctx context.Context, downloadID string) ([]model.CommentWithMeta, error) {
	comments, err := s.commentRepo.ListByDownload(ctx, downloadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// ListAll は全コメントを新しい順に返す（モデレーション画面用）。
func (s *Service) ListAll(ctx context.Context) ([]model.CommentWithMeta, error) {
	comments, err := s.commentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list all comments: %w", err)
	}
	return comments, nil
}

// Create はコメントを投稿する。本文はHTMLタグ除去のサニタイズを通し、
// サニタイズ後に空・最大長超過の場合は検証エラーを返す。
// 投稿成功時はユーザーのコメント数カウンタを単一行UPDATEで加算する。
func (s *Service) Create(ctx context.Context, userID, downloadID, text string) (*model.Comment, error) {
	cleaned := s.sanitizer.Sanitize(text)
	if cleaned == "" {
		return nil, model.NewValidationError("コメントを入力してください。")
	}
	if utf8.RuneCountInString(cleaned) > model.CommentMaxLength {
		return nil, model.NewValidationError(
			fmt.Sprintf("コメントは%d文字以内で入力してください。", model.CommentMaxLength))
	}

	d, err := s.downloadRepo.FindByID(ctx, downloadID)
	if err != nil {
		return nil, fmt.Errorf("failed to find download: %w", err)
	}
	if d == nil {
		return nil, model.NewNotFoundError("ダウンロード項目")
	}

	comment := &model.Comment{
		ID:          uuid.NewString(),
		DownloadID:  downloadID,
		UserID:      userID,
		CommentText: cleaned,
		CreatedAt:   time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if err := s.userRepo.IncrementCommentCount(ctx, userID); err != nil {
		// カウンタは表示用の参考値であり、コメント本体の保存は成功している
		slog.Error("failed to increment comment count", "user_id", userID, "error", err)
	}

	slog.Info("comment created", "comment_id", comment.ID, "download_id", downloadID, "user_id", userID)
	return comment, nil
}

// Delete はコメントを削除する。投稿者本人または管理者のみ削除できる。
// 削除成功時は投稿者のコメント数カウンタを0を下限として減算する。
func (s *Service) Delete(ctx context.Context, id string, actor *model.Session) error {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find comment: %w", err)
	}
	if comment == nil {
		return model.NewNotFoundError("コメント")
	}

	if comment.UserID != actor.UserID && !actor.IsAdmin() {
		return model.NewUnauthorizedError()
	}

	deleted, err := s.commentRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("コメント")
	}

	if err := s.userRepo.DecrementCommentCount(ctx, comment.UserID); err != nil {
		slog.Error("failed to decrement comment count", "user_id", comment.UserID, "error", err)
	}

	slog.Info("comment deleted", "comment_id", id, "actor_id", actor.UserID)
	return nil
}
