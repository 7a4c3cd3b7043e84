package security

import "testing"

// TestCommentSanitizer_Sanitize はHTMLタグの除去と空白トリムを検証する。
func TestCommentSanitizer_Sanitize(t *testing.T) {
	s := NewCommentSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"プレーンテキストはそのまま", "便利なツールです", "便利なツールです"},
		{"scriptタグ除去", "<script>alert('xss')</script>hello", "hello"},
		{"装飾タグ除去", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"imgのonerror除去", `<img src=x onerror=alert(1)>text`, "text"},
		{"前後の空白トリム", "  spaced  ", "spaced"},
		{"アンパサンド保持", "A & B", "A & B"},
		{"タグのみは空", "<div><span></span></div>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestCommentSanitizer_Idempotent は2回適用しても結果が変わらないことを検証する。
func TestCommentSanitizer_Idempotent(t *testing.T) {
	s := NewCommentSanitizer()
	inputs := []string{
		"plain text",
		"<b>tags</b> & entities",
		"日本語 <script>と</script> タグ",
	}
	for _, in := range inputs {
		once := s.Sanitize(in)
		twice := s.Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
