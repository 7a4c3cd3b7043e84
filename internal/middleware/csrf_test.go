package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/dlhub/internal/model"
)

// fakeCSRFValidator は単純な文字列比較で照合するテスト用バリデータ。
type fakeCSRFValidator struct{}

func (fakeCSRFValidator) ValidateCSRFToken(sess *model.Session, candidate string) bool {
	if sess == nil || sess.CSRFToken == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(candidate)) == 1
}

func csrfTestHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// TestCSRFMiddleware_SafeMethodSkipsValidation はGETリクエストが
// トークンなしで通過することを検証する。
func TestCSRFMiddleware_SafeMethodSkipsValidation(t *testing.T) {
	called := false
	mw := NewCSRFMiddleware(fakeCSRFValidator{}, "csrf_token")
	handler := mw(csrfTestHandler(t, &called))

	sess := &model.Session{ID: "sess-1", CSRFToken: "tok"}
	req := httptest.NewRequest(http.MethodGet, "/api/downloads", nil)
	req = req.WithContext(ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected GET request to pass without a token")
	}
}

// TestCSRFMiddleware_MissingToken はトークンなしのPOSTが403で拒否され、
// 本処理に到達しないことを検証する。
func TestCSRFMiddleware_MissingToken(t *testing.T) {
	called := false
	mw := NewCSRFMiddleware(fakeCSRFValidator{}, "csrf_token")
	handler := mw(csrfTestHandler(t, &called))

	sess := &model.Session{ID: "sess-1", CSRFToken: "tok"}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req = req.WithContext(ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler must not run without a CSRF token")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

// TestCSRFMiddleware_FormField はフォームフィールドのトークンで
// 検証が通ることを検証する。
func TestCSRFMiddleware_FormField(t *testing.T) {
	called := false
	mw := NewCSRFMiddleware(fakeCSRFValidator{}, "csrf_token")
	handler := mw(csrfTestHandler(t, &called))

	sess := &model.Session{ID: "sess-1", CSRFToken: "valid-token"}
	form := url.Values{"csrf_token": {"valid-token"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Errorf("expected form token to validate, got status %d", rec.Code)
	}
}

// TestCSRFMiddleware_HeaderFallback はX-CSRF-Tokenヘッダーのトークンで
// 検証が通ることを検証する。
func TestCSRFMiddleware_HeaderFallback(t *testing.T) {
	called := false
	mw := NewCSRFMiddleware(fakeCSRFValidator{}, "csrf_token")
	handler := mw(csrfTestHandler(t, &called))

	sess := &model.Session{ID: "sess-1", CSRFToken: "valid-token"}
	req := httptest.NewRequest(http.MethodDelete, "/api/comments/c-1", nil)
	req.Header.Set("X-CSRF-Token", "valid-token")
	req = req.WithContext(ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Errorf("expected header token to validate, got status %d", rec.Code)
	}
}

// TestCSRFMiddleware_CrossSessionToken は別セッションのトークンが
// 拒否されることを検証する。
func TestCSRFMiddleware_CrossSessionToken(t *testing.T) {
	called := false
	mw := NewCSRFMiddleware(fakeCSRFValidator{}, "csrf_token")
	handler := mw(csrfTestHandler(t, &called))

	sess := &model.Session{ID: "sess-1", CSRFToken: "token-of-sess-1"}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-CSRF-Token", "token-of-sess-2")
	req = req.WithContext(ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if called {
		t.Error("token from another session must not validate")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
