package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vixel/vixel/internal/httputil"
)

// Third-party origins the pages load from.
const (
	youtubeScriptSrc = "https://www.youtube.com https://s.ytimg.com"
	youtubeFrameSrc  = "https://www.youtube.com https://www.youtube-nocookie.com"
	youtubeImgSrc    = "https://i.ytimg.com https://yt3.ggpht.com https://*.googleusercontent.com"
)

type SecurityConfig struct {
	BaseURL string
	// AllowedFrameAncestors is added to frame-ancestors 'self'.
	AllowedFrameAncestors string
}

func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")

	frameAncestors := "'self'"
	if cfg.AllowedFrameAncestors != "" {
		frameAncestors += " " + cfg.AllowedFrameAncestors
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := httputil.NewNonce()
			if err != nil {
				slog.Error("security headers", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			ctx := httputil.ContextWithNonce(r.Context(), nonce)

			// The YouTube embed refuses to play without a referrer.
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Permissions-Policy", `camera=(), microphone=(), geolocation=(self), autoplay=(self "https://www.youtube.com"), fullscreen=(self "https://www.youtube.com")`)

			csp := fmt.Sprintf(
				"default-src 'self'; img-src 'self' data: %s; script-src 'self' 'nonce-%s' %s; style-src 'self' 'nonce-%s'; frame-src %s; connect-src 'self'; frame-ancestors %s;",
				youtubeImgSrc, nonce, youtubeScriptSrc, nonce, youtubeFrameSrc, frameAncestors,
			)
			w.Header().Set("Content-Security-Policy", csp)

			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
