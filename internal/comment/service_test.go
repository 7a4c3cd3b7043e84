package comment

import (
	"context"
	"strings"
	"testing"

	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/security"
)

// --- モック ---

type mockCommentRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Comment, error)
	createFn   func(ctx context.Context, comment *model.Comment) error
	deleteFn   func(ctx context.Context, id string) (bool, error)
}

func (m *mockCommentRepo) ListByDownload(_ context.Context, _ string) ([]model.CommentWithMeta, error) {
	return nil, nil
}
func (m *mockCommentRepo) ListAll(_ context.Context) ([]model.CommentWithMeta, error) {
	return nil, nil
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	if m.createFn != nil {
		return m.createFn(ctx, comment)
	}
	return nil
}

func (m *mockCommentRepo) Count(_ context.Context) (int, error) { return 0, nil }

func (m *mockCommentRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

type mockDownloadRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.DownloadWithMeta, error)
}

func (m *mockDownloadRepo) List(_ context.Context, _ string, _, _ int) ([]model.DownloadWithMeta, error) {
	return nil, nil
}
func (m *mockDownloadRepo) ListByCategory(_ context.Context, _ string) ([]model.DownloadWithMeta, error) {
	return nil, nil
}

func (m *mockDownloadRepo) FindByID(ctx context.Context, id string) (*model.DownloadWithMeta, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.DownloadWithMeta{Download: model.Download{ID: id}}, nil
}

func (m *mockDownloadRepo) Create(_ context.Context, _ *model.Download) error { return nil }
func (m *mockDownloadRepo) Update(_ context.Context, _ *model.Download) (bool, error) {
	return true, nil
}
func (m *mockDownloadRepo) IncrementDownloadCount(_ context.Context, _ string) (bool, error) {
	return true, nil
}
func (m *mockDownloadRepo) Stats(_ context.Context) (int, int, error)       { return 0, 0, nil }
func (m *mockDownloadRepo) DeleteByID(_ context.Context, _ string) (bool, error) {
	return true, nil
}

type mockUserRepo struct {
	incrementFn func(ctx context.Context, id string) error
	decrementFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(_ context.Context, _ string) (*model.User, error) { return nil, nil }
func (m *mockUserRepo) FindByUsernameOrEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) ExistsByUsernameOrEmail(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}
func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (m *mockUserRepo) VerifyEmailByToken(_ context.Context, _ string) (bool, error) {
	return false, nil
}
func (m *mockUserRepo) List(_ context.Context) ([]*model.User, error)           { return nil, nil }
func (m *mockUserRepo) UpdateRole(_ context.Context, _, _ string) (bool, error) { return false, nil }
func (m *mockUserRepo) UpdateDescription(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) IncrementCommentCount(ctx context.Context, id string) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) DecrementCommentCount(ctx context.Context, id string) error {
	if m.decrementFn != nil {
		return m.decrementFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int, error)         { return 0, nil }
func (m *mockUserRepo) DeleteByID(_ context.Context, _ string) error { return nil }

func newTestService(commentRepo *mockCommentRepo, downloadRepo *mockDownloadRepo, userRepo *mockUserRepo) *Service {
	return NewService(commentRepo, downloadRepo, userRepo, security.NewCommentSanitizer())
}

// --- テスト ---

// TestService_Create_SanitizesHTML は本文のHTMLタグが除去されて
// 保存されることを検証する。
func TestService_Create_SanitizesHTML(t *testing.T) {
	var saved *model.Comment
	commentRepo := &mockCommentRepo{
		createFn: func(_ context.Context, c *model.Comment) error {
			saved = c
			return nil
		},
	}
	svc := newTestService(commentRepo, &mockDownloadRepo{}, &mockUserRepo{})

	_, err := svc.Create(context.Background(), "u-1", "d-1",
		`<script>alert('xss')</script>いいツールですね`)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if saved == nil {
		t.Fatal("expected comment to be saved")
	}
	if strings.Contains(saved.CommentText, "<script>") {
		t.Errorf("script tag must be stripped, got %q", saved.CommentText)
	}
	if !strings.Contains(saved.CommentText, "いいツールですね") {
		t.Errorf("plain text must survive sanitization, got %q", saved.CommentText)
	}
}

// TestService_Create_EmptyAfterSanitize はサニタイズ後に空となる本文が
// 拒否されることを検証する。
func TestService_Create_EmptyAfterSanitize(t *testing.T) {
	commentRepo := &mockCommentRepo{
		createFn: func(_ context.Context, _ *model.Comment) error {
			t.Error("empty comment must not be saved")
			return nil
		},
	}
	svc := newTestService(commentRepo, &mockDownloadRepo{}, &mockUserRepo{})

	_, err := svc.Create(context.Background(), "u-1", "d-1", "<b></b>   ")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

// TestService_Create_TooLong は最大長超過の本文が拒否されることを検証する。
// 長さはルーン単位で数える。
func TestService_Create_TooLong(t *testing.T) {
	svc := newTestService(&mockCommentRepo{}, &mockDownloadRepo{}, &mockUserRepo{})

	_, err := svc.Create(context.Background(), "u-1", "d-1",
		strings.Repeat("あ", model.CommentMaxLength+1))
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}

	// ちょうど最大長は許容される
	if _, err := svc.Create(context.Background(), "u-1", "d-1",
		strings.Repeat("あ", model.CommentMaxLength)); err != nil {
		t.Errorf("comment at max length must be accepted, got %v", err)
	}
}

// TestService_Create_IncrementsCounter は投稿成功時にユーザーの
// コメント数カウンタが加算されることを検証する。
func TestService_Create_IncrementsCounter(t *testing.T) {
	incrementedFor := ""
	userRepo := &mockUserRepo{
		incrementFn: func(_ context.Context, id string) error {
			incrementedFor = id
			return nil
		},
	}
	svc := newTestService(&mockCommentRepo{}, &mockDownloadRepo{}, userRepo)

	if _, err := svc.Create(context.Background(), "u-1", "d-1", "テストコメント"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if incrementedFor != "u-1" {
		t.Errorf("expected comment count increment for u-1, got %q", incrementedFor)
	}
}

// TestService_Delete_Owner は投稿者本人が自分のコメントを削除でき、
// カウンタが減算されることを検証する。
func TestService_Delete_Owner(t *testing.T) {
	decrementedFor := ""
	commentRepo := &mockCommentRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Comment, error) {
			return &model.Comment{ID: id, UserID: "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"}, nil
		},
	}
	userRepo := &mockUserRepo{
		decrementFn: func(_ context.Context, id string) error {
			decrementedFor = id
			return nil
		},
	}
	svc := newTestService(commentRepo, &mockDownloadRepo{}, userRepo)

	actor := &model.Session{
		ID:       "sess-1",
		UserID:   "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee",
		UserRole: model.RoleMember,
	}
	if err := svc.Delete(context.Background(), "c-1", actor); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if decrementedFor != "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee" {
		t.Error("expected comment count decrement for the author")
	}
}

// TestService_Delete_OtherUser は他人のコメント削除が拒否されることを検証する。
func TestService_Delete_OtherUser(t *testing.T) {
	commentRepo := &mockCommentRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Comment, error) {
			return &model.Comment{ID: id, UserID: "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"}, nil
		},
		deleteFn: func(_ context.Context, _ string) (bool, error) {
			t.Error("comment of another user must not be deleted")
			return false, nil
		},
	}
	svc := newTestService(commentRepo, &mockDownloadRepo{}, &mockUserRepo{})

	actor := &model.Session{
		ID:       "sess-2",
		UserID:   "ffffffff-bbbb-4ccc-8ddd-eeeeeeeeeeee",
		UserRole: model.RoleMember,
	}
	err := svc.Delete(context.Background(), "c-1", actor)
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
}

// TestService_Delete_Admin は管理者が任意のコメントを削除できることを検証する（モデレーション）。
func TestService_Delete_Admin(t *testing.T) {
	deleted := false
	commentRepo := &mockCommentRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Comment, error) {
			return &model.Comment{ID: id, UserID: "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"}, nil
		},
		deleteFn: func(_ context.Context, _ string) (bool, error) {
			deleted = true
			return true, nil
		},
	}
	svc := newTestService(commentRepo, &mockDownloadRepo{}, &mockUserRepo{})

	actor := &model.Session{
		ID:       "sess-admin",
		UserID:   "ffffffff-bbbb-4ccc-8ddd-eeeeeeeeeeee",
		UserRole: model.RoleAdmin,
	}
	if err := svc.Delete(context.Background(), "c-1", actor); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deleted {
		t.Error("expected admin to delete any comment")
	}
}

// TestService_Create_IdempotentSanitize は同一入力のサニタイズ結果が
// 常に同一であることを検証する。
func TestService_Create_IdempotentSanitize(t *testing.T) {
	sanitizer := security.NewCommentSanitizer()
	input := `<b>bold</b> & <i>italic</i> テキスト`

	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)
	if first != second {
		t.Errorf("sanitization must be idempotent: %q != %q", first, second)
	}
}
