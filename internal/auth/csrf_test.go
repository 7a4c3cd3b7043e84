package auth

import (
	"context"
	"testing"

	"github.com/hitoshi/dlhub/internal/model"
)

// TestService_EnsureCSRFToken_LazyGeneration は初回呼び出しでのみトークンが
// 生成・永続化され、以降は同じ値が返ることを検証する。
func TestService_EnsureCSRFToken_LazyGeneration(t *testing.T) {
	updates := 0
	sessionRepo := &mockSessionRepo{
		updateCSRFTokenFn: func(_ context.Context, _, _ string) error {
			updates++
			return nil
		},
	}

	svc := NewService(&mockUserRepo{}, sessionRepo, nil, nil, testConfig())
	sess := &model.Session{ID: "sess-1"}
	ctx := context.Background()

	first, err := svc.EnsureCSRFToken(ctx, sess)
	if err != nil {
		t.Fatalf("EnsureCSRFToken returned error: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected 32-byte hex token, got %d chars", len(first))
	}

	second, err := svc.EnsureCSRFToken(ctx, sess)
	if err != nil {
		t.Fatalf("EnsureCSRFToken returned error: %v", err)
	}
	if first != second {
		t.Error("token must not rotate within a session")
	}
	if updates != 1 {
		t.Errorf("expected exactly 1 persistence call, got %d", updates)
	}
}

// TestService_ValidateCSRFToken は照合の成否を検証する。
// 別セッションのトークンや空値は常に拒否される。
func TestService_ValidateCSRFToken(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, nil, nil, testConfig())

	sess := &model.Session{ID: "sess-1", CSRFToken: "aabbccdd"}
	other := &model.Session{ID: "sess-2", CSRFToken: "11223344"}

	if !svc.ValidateCSRFToken(sess, "aabbccdd") {
		t.Error("expected matching token to validate")
	}
	if svc.ValidateCSRFToken(sess, other.CSRFToken) {
		t.Error("token from another session must be rejected")
	}
	if svc.ValidateCSRFToken(sess, "") {
		t.Error("empty candidate must be rejected")
	}
	if svc.ValidateCSRFToken(&model.Session{ID: "sess-3"}, "aabbccdd") {
		t.Error("session without a token must reject any candidate")
	}
	if svc.ValidateCSRFToken(nil, "aabbccdd") {
		t.Error("nil session must be rejected")
	}
}
