package download

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/dlhub/internal/model"
)

// --- モック ---

type mockDownloadRepo struct {
	listFn      func(ctx context.Context, orderBy string, limit, offset int) ([]model.DownloadWithMeta, error)
	findByIDFn  func(ctx context.Context, id string) (*model.DownloadWithMeta, error)
	createFn    func(ctx context.Context, d *model.Download) error
	incrementFn func(ctx context.Context, id string) (bool, error)
	deleteFn    func(ctx context.Context, id string) (bool, error)
}

func (m *mockDownloadRepo) List(ctx context.Context, orderBy string, limit, offset int) ([]model.DownloadWithMeta, error) {
	if m.listFn != nil {
		return m.listFn(ctx, orderBy, limit, offset)
	}
	return nil, nil
}

func (m *mockDownloadRepo) ListByCategory(_ context.Context, _ string) ([]model.DownloadWithMeta, error) {
	return nil, nil
}

func (m *mockDownloadRepo) FindByID(ctx context.Context, id string) (*model.DownloadWithMeta, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDownloadRepo) Create(ctx context.Context, d *model.Download) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}

func (m *mockDownloadRepo) Update(_ context.Context, _ *model.Download) (bool, error) {
	return true, nil
}

func (m *mockDownloadRepo) IncrementDownloadCount(ctx context.Context, id string) (bool, error) {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, id)
	}
	return true, nil
}

func (m *mockDownloadRepo) Stats(_ context.Context) (int, int, error) { return 0, 0, nil }

func (m *mockDownloadRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

type mockCategoryRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Category, error)
}

func (m *mockCategoryRepo) List(_ context.Context) ([]*model.Category, error) { return nil, nil }

func (m *mockCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Create(_ context.Context, _ *model.Category) error { return nil }

type mockLinkValidator struct {
	validateFn func(rawURL string) error
}

func (m *mockLinkValidator) ValidateURL(rawURL string) error {
	if m.validateFn != nil {
		return m.validateFn(rawURL)
	}
	return nil
}

// --- テスト ---

// TestService_List_SortWhitelist はソートキーが許可リストで検証され、
// 不明な値が新着順へフォールバックすることを検証する。
func TestService_List_SortWhitelist(t *testing.T) {
	tests := []struct {
		sort    string
		orderBy string
	}{
		{"newest", "d.created_at DESC"},
		{"oldest", "d.created_at ASC"},
		{"popular", "d.download_count DESC"},
		{"name", "d.name ASC"},
		{"", "d.created_at DESC"},
		{"unknown", "d.created_at DESC"},
		{"name; DROP TABLE downloads", "d.created_at DESC"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("sort=%q", tt.sort), func(t *testing.T) {
			var gotOrderBy string
			repo := &mockDownloadRepo{
				listFn: func(_ context.Context, orderBy string, _, _ int) ([]model.DownloadWithMeta, error) {
					gotOrderBy = orderBy
					return nil, nil
				},
			}
			svc := NewService(repo, &mockCategoryRepo{}, &mockLinkValidator{})

			if _, err := svc.List(context.Background(), tt.sort, 20, 0); err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if gotOrderBy != tt.orderBy {
				t.Errorf("expected orderBy %q, got %q", tt.orderBy, gotOrderBy)
			}
		})
	}
}

// TestService_Create_RejectsUnsafeLink はリンク検証に失敗した項目が
// 保存されないことを検証する。
func TestService_Create_RejectsUnsafeLink(t *testing.T) {
	repo := &mockDownloadRepo{
		createFn: func(_ context.Context, _ *model.Download) error {
			t.Error("download with unsafe link must not be saved")
			return nil
		},
	}
	validator := &mockLinkValidator{
		validateFn: func(_ string) error {
			return fmt.Errorf("blocked network")
		},
	}
	svc := NewService(repo, &mockCategoryRepo{}, validator)

	_, err := svc.Create(context.Background(), &model.Download{
		Name:         "tool",
		DownloadLink: "http://169.254.169.254/latest/meta-data",
	})
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

// TestService_Create_Success は作成時にIDと作成日時が割り当てられることを検証する。
func TestService_Create_Success(t *testing.T) {
	var saved *model.Download
	repo := &mockDownloadRepo{
		createFn: func(_ context.Context, d *model.Download) error {
			saved = d
			return nil
		},
	}
	svc := NewService(repo, &mockCategoryRepo{}, &mockLinkValidator{})

	created, err := svc.Create(context.Background(), &model.Download{
		Name:         "tool",
		DownloadLink: "https://example.com/tool.zip",
		CreatedBy:    "admin-1",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if saved == nil || saved.ID == "" {
		t.Fatal("expected download to be saved with an ID")
	}
	if created.CreatedAt.IsZero() || time.Since(created.CreatedAt) > time.Minute {
		t.Errorf("unexpected CreatedAt: %v", created.CreatedAt)
	}
}

// TestService_Create_UnknownCategory は存在しないカテゴリ指定が
// 検証エラーになることを検証する。
func TestService_Create_UnknownCategory(t *testing.T) {
	svc := NewService(&mockDownloadRepo{}, &mockCategoryRepo{}, &mockLinkValidator{})

	_, err := svc.Create(context.Background(), &model.Download{
		Name:         "tool",
		CategoryID:   "no-such-category",
		DownloadLink: "https://example.com/tool.zip",
	})
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

// TestService_RecordDownload はカウンタが加算され、リンク先URLが返ることを検証する。
func TestService_RecordDownload(t *testing.T) {
	incremented := false
	repo := &mockDownloadRepo{
		findByIDFn: func(_ context.Context, id string) (*model.DownloadWithMeta, error) {
			return &model.DownloadWithMeta{
				Download: model.Download{ID: id, DownloadLink: "https://example.com/tool.zip"},
			}, nil
		},
		incrementFn: func(_ context.Context, _ string) (bool, error) {
			incremented = true
			return true, nil
		},
	}
	svc := NewService(repo, &mockCategoryRepo{}, &mockLinkValidator{})

	url, err := svc.RecordDownload(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("RecordDownload returned error: %v", err)
	}
	if url != "https://example.com/tool.zip" {
		t.Errorf("unexpected URL: %s", url)
	}
	if !incremented {
		t.Error("expected download count to be incremented")
	}
}

// TestService_RecordDownload_NotFound は存在しない項目がNOT_FOUNDになることを検証する。
func TestService_RecordDownload_NotFound(t *testing.T) {
	svc := NewService(&mockDownloadRepo{}, &mockCategoryRepo{}, &mockLinkValidator{})

	_, err := svc.RecordDownload(context.Background(), "no-such-id")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
