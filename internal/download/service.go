// Package download はダウンロード項目のビジネスロジックを提供する。
package download

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/repository"
	"github.com/hitoshi/dlhub/internal/security"
)

// orderColumns はソートキーとして受け付ける列の許可リスト。
// 一覧APIのsortパラメータをSQLへ渡す前にここで変換する。
var orderColumns = map[string]string{
	"newest":  "d.created_at DESC",
	"oldest":  "d.created_at ASC",
	"popular": "d.download_count DESC",
	"name":    "d.name ASC",
}

// defaultOrder は未指定・不明なソートキーのときに使う既定の並び順。
const defaultOrder = "newest"

// Service はダウンロード項目のビジネスロジックを担う。
type Service struct {
	downloadRepo  repository.DownloadRepository
	categoryRepo  repository.CategoryRepository
	linkValidator security.LinkValidatorService
}

// NewService はServiceを生成する。
func NewService(downloadRepo repository.DownloadRepository, categoryRepo repository.CategoryRepository, linkValidator security.LinkValidatorService) *Service {
	return &Service{
		downloadRepo:  downloadRepo,
		categoryRepo:  categoryRepo,
		linkValidator: linkValidator,
	}
}

// List はダウンロード一覧を返す。sortは許可リストで検証し、
// 不明な値は既定の並び順（新着順）へフォールバックする。
func (s *Service) List(ctx context.Context, sort string, limit, offset int) ([]model.DownloadWithMeta, error) {
	orderBy, ok := orderColumns[sort]
	if !ok {
		orderBy = orderColumns[defaultOrder]
	}

	downloads, err := s.downloadRepo.List(ctx, orderBy, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	return downloads, nil
}

// ListByCategory は指定カテゴリのダウンロード一覧を返す。
// カテゴリが存在しない場合はNotFoundエラーを返す。
func (s *Service) ListByCategory(ctx context.Context, categoryID string) (*model.Category, []model.DownloadWithMeta, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, nil, model.NewNotFoundError("カテゴリ")
	}

	downloads, err := s.downloadRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list downloads by category: %w", err)
	}
	return category, downloads, nil
}

// Get は指定IDのダウンロードを返す。見つからない場合はNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.DownloadWithMeta, error) {
	d, err := s.downloadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find download: %w", err)
	}
	if d == nil {
		return nil, model.NewNotFoundError("ダウンロード項目")
	}
	return d, nil
}

// Create はダウンロード項目を新規作成する（管理者操作）。
// リンクは保存前に安全性を検証し、内部ネットワークを指すURLを拒否する。
func (s *Service) Create(ctx context.Context, d *model.Download) (*model.Download, error) {
	if err := s.validate(ctx, d); err != nil {
		return nil, err
	}

	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	if err := s.downloadRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}

	slog.Info("download created", "download_id", d.ID, "name", d.Name, "created_by", d.CreatedBy)
	return d, nil
}

// Update はダウンロード項目を更新する（管理者操作）。
func (s *Service) Update(ctx context.Context, d *model.Download) error {
	if err := s.validate(ctx, d); err != nil {
		return err
	}

	updated, err := s.downloadRepo.Update(ctx, d)
	if err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}
	if !updated {
		return model.NewNotFoundError("ダウンロード項目")
	}

	slog.Info("download updated", "download_id", d.ID, "name", d.Name)
	return nil
}

// Delete はダウンロード項目を削除する（管理者操作）。
// 付随するコメントはデータベース側でCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.downloadRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("ダウンロード項目")
	}

	slog.Info("download deleted", "download_id", id)
	return nil
}

// RecordDownload はダウンロード数カウンタを加算し、リンク先URLを返す。
// カウンタ加算は単一行UPDATEで行い、並行リクエストでも取りこぼさない。
func (s *Service) RecordDownload(ctx context.Context, id string) (string, error) {
	d, err := s.downloadRepo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to find download: %w", err)
	}
	if d == nil {
		return "", model.NewNotFoundError("ダウンロード項目")
	}

	if _, err := s.downloadRepo.IncrementDownloadCount(ctx, id); err != nil {
		return "", fmt.Errorf("failed to increment download count: %w", err)
	}

	return d.DownloadLink, nil
}

// validate はダウンロード項目の入力を検証する。
func (s *Service) validate(ctx context.Context, d *model.Download) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return model.NewValidationError("名前を入力してください。")
	}

	if d.CategoryID != "" {
		category, err := s.categoryRepo.FindByID(ctx, d.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to find category: %w", err)
		}
		if category == nil {
			return model.NewValidationError("指定されたカテゴリが存在しません。")
		}
	}

	if d.DownloadLink == "" {
		return model.NewValidationError("ダウンロードリンクを入力してください。")
	}
	if err := s.linkValidator.ValidateURL(d.DownloadLink); err != nil {
		slog.Warn("download link rejected", "url", d.DownloadLink, "error", err)
		return model.NewValidationError("ダウンロードリンクのURLが無効です。")
	}
	if d.AlternativeLink != "" {
		if err := s.linkValidator.ValidateURL(d.AlternativeLink); err != nil {
			slog.Warn("alternative link rejected", "url", d.AlternativeLink, "error", err)
			return model.NewValidationError("代替リンクのURLが無効です。")
		}
	}

	return nil
}
