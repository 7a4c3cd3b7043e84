package model

import "testing"

// TestSession_IsLoggedIn はUserIDの形式に応じたログイン判定を検証する。
func TestSession_IsLoggedIn(t *testing.T) {
	tests := []struct {
		name string
		sess *Session
		want bool
	}{
		{"nilセッション", nil, false},
		{"匿名セッション", &Session{ID: "sess-1"}, false},
		{"UUID形式のUserID", &Session{ID: "sess-1", UserID: "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"}, true},
		{"不正な形式のUserID", &Session{ID: "sess-1", UserID: "not-a-uuid"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.IsLoggedIn(); got != tt.want {
				t.Errorf("IsLoggedIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSession_IsAdmin はロールに応じた管理者判定を検証する。
func TestSession_IsAdmin(t *testing.T) {
	userID := "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"

	admin := &Session{ID: "sess-1", UserID: userID, UserRole: RoleAdmin}
	if !admin.IsAdmin() {
		t.Error("admin session must be admin")
	}

	member := &Session{ID: "sess-2", UserID: userID, UserRole: RoleMember}
	if member.IsAdmin() {
		t.Error("member session must not be admin")
	}

	// 匿名セッションはロールがadminでも管理者にならない
	anon := &Session{ID: "sess-3", UserRole: RoleAdmin}
	if anon.IsAdmin() {
		t.Error("anonymous session must not be admin")
	}
}
