package security

import "testing"

// TestLinkValidator_ValidateURL はダウンロードリンクの静的検証を検証する。
func TestLinkValidator_ValidateURL(t *testing.T) {
	v := NewLinkValidator()

	valid := []string{
		"https://example.com/tool.zip",
		"http://cdn.example.org/files/app-1.2.3.tar.gz",
		"https://8.8.8.8/file",
	}
	for _, u := range valid {
		if err := v.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"ftp://example.com/file",
		"javascript:alert(1)",
		"file:///etc/passwd",
		"https://",
		"http://localhost/admin",
		"http://LOCALHOST/admin",
		"http://127.0.0.1:8080/",
		"http://10.0.0.5/internal",
		"http://172.16.1.1/internal",
		"http://192.168.1.1/router",
		"http://169.254.169.254/latest/meta-data",
		"http://0.0.0.0/",
		"http://[::1]/",
		"http://[fe80::1]/",
	}
	for _, u := range invalid {
		if err := v.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}
