package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vixel/vixel/internal/httputil"
)

func serveWithSecurity(cfg SecurityConfig, inner http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	securityHeaders(cfg)(inner).ServeHTTP(rec, req)
	return rec
}

func noop(w http.ResponseWriter, r *http.Request) {}

func TestSecurityHeaders_CSPContainsNonce(t *testing.T) {
	var capturedNonce string
	rec := serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, func(w http.ResponseWriter, r *http.Request) {
		capturedNonce = httputil.NonceFromContext(r.Context())
	})

	if capturedNonce == "" {
		t.Fatal("expected non-empty nonce in context")
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "script-src 'self' 'nonce-"+capturedNonce+"'") {
		t.Errorf("CSP script-src should contain nonce, got: %s", csp)
	}
	if !strings.Contains(csp, "style-src 'self' 'nonce-"+capturedNonce+"'") {
		t.Errorf("CSP style-src should contain nonce, got: %s", csp)
	}
}

func TestSecurityHeaders_CSPOmitsUnsafeInline(t *testing.T) {
	csp := serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, noop).Header().Get("Content-Security-Policy")

	if strings.Contains(csp, "'unsafe-inline'") {
		t.Errorf("CSP should not contain 'unsafe-inline', got: %s", csp)
	}
}

func TestSecurityHeaders_CSPAllowsYouTube(t *testing.T) {
	csp := serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, noop).Header().Get("Content-Security-Policy")

	for _, want := range []string{
		"frame-src https://www.youtube.com https://www.youtube-nocookie.com;",
		"https://i.ytimg.com",
		"https://yt3.ggpht.com",
		"https://*.googleusercontent.com",
		"script-src 'self' 'nonce-",
		"connect-src 'self';",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP should contain %q, got: %s", want, csp)
		}
	}
	if !strings.Contains(csp, "https://www.youtube.com https://s.ytimg.com; style-src") {
		t.Errorf("CSP script-src should allow the IFrame API, got: %s", csp)
	}
}

func TestSecurityHeaders_UniqueNoncePerRequest(t *testing.T) {
	var nonces []string
	inner := func(w http.ResponseWriter, r *http.Request) {
		nonces = append(nonces, httputil.NonceFromContext(r.Context()))
	}

	for i := 0; i < 3; i++ {
		serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, inner)
	}

	if nonces[0] == nonces[1] || nonces[1] == nonces[2] {
		t.Errorf("expected unique nonces per request, got %v", nonces)
	}
}

func TestSecurityHeaders_PermissionsPolicyAllowsGeolocation(t *testing.T) {
	pp := serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, noop).Header().Get("Permissions-Policy")

	if !strings.Contains(pp, "geolocation=(self)") {
		t.Errorf("Permissions-Policy should allow geolocation=(self), got: %s", pp)
	}
	if !strings.Contains(pp, "camera=()") || !strings.Contains(pp, "microphone=()") {
		t.Errorf("Permissions-Policy should deny camera and microphone, got: %s", pp)
	}
	if !strings.Contains(pp, `fullscreen=(self "https://www.youtube.com")`) {
		t.Errorf("Permissions-Policy should let the player go fullscreen, got: %s", pp)
	}
}

func TestSecurityHeaders_ReferrerPolicyKeepsOrigin(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, noop)

	if got := rec.Header().Get("Referrer-Policy"); got != "strict-origin-when-cross-origin" {
		t.Errorf("Referrer-Policy = %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestSecurityHeaders_HSTSOnHTTPS(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, noop)

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS header for HTTPS base URL")
	}
}

func TestSecurityHeaders_NoHSTSOnHTTP(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{BaseURL: "http://localhost:8080"}, noop)

	if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("expected no HSTS for HTTP base URL, got: %s", hsts)
	}
}

func TestSecurityHeaders_FrameAncestorsDefault(t *testing.T) {
	csp := serveWithSecurity(SecurityConfig{BaseURL: "https://app.test"}, noop).Header().Get("Content-Security-Policy")

	if !strings.Contains(csp, "frame-ancestors 'self';") {
		t.Errorf("CSP should contain frame-ancestors 'self', got: %s", csp)
	}
}

func TestSecurityHeaders_FrameAncestorsCustom(t *testing.T) {
	csp := serveWithSecurity(SecurityConfig{
		BaseURL:               "https://app.test",
		AllowedFrameAncestors: "https://blog.example.com",
	}, noop).Header().Get("Content-Security-Policy")

	if !strings.Contains(csp, "frame-ancestors 'self' https://blog.example.com;") {
		t.Errorf("CSP should contain custom frame-ancestors, got: %s", csp)
	}
}
