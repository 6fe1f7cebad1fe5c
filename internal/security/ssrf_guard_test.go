package security

import (
	"testing"
	"time"
)

// コンパイル時インターフェースチェック
var _ SSRFGuardService = (*ssrfGuard)(nil)

func TestValidateURL_AllowsPublicURLs(t *testing.T) {
	guard := NewSSRFGuard()

	allowed := []string{
		"https://example.com/photo.jpg",
		"http://example.com/image.png",
		"https://cdn.example.org/a/b/c.webp?size=large",
		"https://93.184.216.34/photo.jpg", // パブリックIP
	}

	for _, u := range allowed {
		if err := guard.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateURL_BlocksPrivateAndLoopbackIPs(t *testing.T) {
	guard := NewSSRFGuard()

	blocked := []string{
		"http://10.0.0.1/a.jpg",
		"http://172.16.0.1/a.jpg",
		"http://192.168.1.1/a.jpg",
		"http://127.0.0.1/a.jpg",
		"http://169.254.169.254/latest/meta-data/", // クラウドメタデータIP
		"http://0.0.0.0/a.jpg",
		"http://[::1]/a.jpg",
		"http://[fe80::1]/a.jpg",
		"http://[fc00::1]/a.jpg",
	}

	for _, u := range blocked {
		if err := guard.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestValidateURL_BlocksLocalhost(t *testing.T) {
	guard := NewSSRFGuard()

	if err := guard.ValidateURL("http://localhost/a.jpg"); err == nil {
		t.Error("ValidateURL should block localhost")
	}
	if err := guard.ValidateURL("http://LOCALHOST/a.jpg"); err == nil {
		t.Error("ValidateURL should block LOCALHOST (case-insensitive)")
	}
}

func TestValidateURL_BlocksDisallowedSchemes(t *testing.T) {
	guard := NewSSRFGuard()

	blocked := []string{
		"file:///etc/passwd",
		"ftp://example.com/a.jpg",
		"gopher://example.com/",
		"javascript:alert(1)",
	}

	for _, u := range blocked {
		if err := guard.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestValidateURL_RejectsEmptyAndMalformed(t *testing.T) {
	guard := NewSSRFGuard()

	if err := guard.ValidateURL(""); err == nil {
		t.Error("ValidateURL should reject an empty URL")
	}
	if err := guard.ValidateURL("https://"); err == nil {
		t.Error("ValidateURL should reject a URL with an empty host")
	}
	if err := guard.ValidateURL("not a url at all"); err == nil {
		t.Error("ValidateURL should reject a malformed URL")
	}
}

func TestNewSafeClient_ReturnsClientWithTimeout(t *testing.T) {
	guard := NewSSRFGuard()

	client := guard.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient returned nil")
	}
}
