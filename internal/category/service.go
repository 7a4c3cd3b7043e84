// Package category はカテゴリのビジネスロジックを提供する。
package category

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/repository"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Service はカテゴリのビジネスロジックを担う。
type Service struct {
	categoryRepo repository.CategoryRepository
}

// NewService はServiceを生成する。
func NewService(categoryRepo repository.CategoryRepository) *Service {
	return &Service{categoryRepo: categoryRepo}
}

// List は全カテゴリを名前昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Get は指定IDのカテゴリを返す。見つからない場合はNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, model.NewNotFoundError("カテゴリ")
	}
	return category, nil
}

// Create はカテゴリを新規作成する（管理者操作）。
// スラグが未指定の場合は名前から生成する。
func (s *Service) Create(ctx context.Context, category *model.Category) (*model.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, model.NewValidationError("カテゴリ名を入力してください。")
	}
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}

	category.ID = uuid.NewString()
	category.CreatedAt = time.Now()
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

// Slugify は表示名からURL用のスラグを生成する。
// 英数字以外の連続をハイフン1つへ置換し、小文字に揃える。
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
