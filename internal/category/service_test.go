package category

import (
	"context"
	"testing"

	"github.com/hitoshi/dlhub/internal/model"
)

type mockCategoryRepo struct {
	listFn     func(ctx context.Context) ([]*model.Category, error)
	findByIDFn func(ctx context.Context, id string) (*model.Category, error)
	createFn   func(ctx context.Context, category *model.Category) error
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, category)
	}
	return nil
}

// TestSlugify はスラグ生成の変換規則を検証する。
func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tools", "tools"},
		{"Game Mods", "game-mods"},
		{"  Audio / Video  ", "audio-video"},
		{"C++ Libraries!", "c-libraries"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestService_Create_DefaultSlug はスラグ未指定時に名前から生成されることを検証する。
func TestService_Create_DefaultSlug(t *testing.T) {
	var saved *model.Category
	repo := &mockCategoryRepo{
		createFn: func(_ context.Context, c *model.Category) error {
			saved = c
			return nil
		},
	}
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &model.Category{Name: "Game Mods"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if saved == nil || saved.ID == "" {
		t.Fatal("expected category to be saved with an ID")
	}
	if created.Slug != "game-mods" {
		t.Errorf("expected generated slug, got %q", created.Slug)
	}
}

// TestService_Create_EmptyName は空のカテゴリ名が拒否されることを検証する。
func TestService_Create_EmptyName(t *testing.T) {
	svc := NewService(&mockCategoryRepo{})

	_, err := svc.Create(context.Background(), &model.Category{Name: "   "})
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

// TestService_Get_NotFound は存在しないカテゴリがNOT_FOUNDになることを検証する。
func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockCategoryRepo{})

	_, err := svc.Get(context.Background(), "no-such-id")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
