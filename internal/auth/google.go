package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type contextKey string

const userKey contextKey = "user"

const (
	stateCookie     = "vixel_oauth_state"
	stateDuration   = 10 * time.Minute
	userInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
	revokeURL       = "https://oauth2.googleapis.com/revoke"
	youtubeReadonly = "https://www.googleapis.com/auth/youtube.readonly"
)

type Config struct {
	ClientID      string
	ClientSecret  string
	BaseURL       string
	SecureCookies bool

	// Overrides for tests; zero values use Google's endpoints.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	RevokeURL   string
	HTTPClient  *http.Client
}

type Handler struct {
	oauth         *oauth2.Config
	sessions      *Sessions
	userInfoURL   string
	revokeURL     string
	http          *http.Client
	secureCookies bool
}

func NewHandler(cfg Config, sessions *Sessions) *Handler {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	h := &Handler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + "/auth/callback",
			Scopes:       []string{"openid", "email", "profile", youtubeReadonly},
		},
		sessions:      sessions,
		userInfoURL:   cfg.UserInfoURL,
		revokeURL:     cfg.RevokeURL,
		http:          cfg.HTTPClient,
		secureCookies: cfg.SecureCookies,
	}
	if h.userInfoURL == "" {
		h.userInfoURL = userInfoURL
	}
	if h.revokeURL == "" {
		h.revokeURL = revokeURL
	}
	if h.http == nil {
		h.http = &http.Client{Timeout: 10 * time.Second}
	}
	return h
}

func (h *Handler) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, h.http)
}

// Login starts the Google consent flow.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		http.Error(w, "failed to start sign-in", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateDuration / time.Second),
	})
	authURL := h.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.clearState(w)

	if errParam := q.Get("error"); errParam != "" {
		slog.Info("auth: sign-in declined", "error", errParam)
		http.Redirect(w, r, "/?signin=cancelled", http.StatusFound)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		http.Error(w, "invalid sign-in state", http.StatusBadRequest)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	ctx := h.oauthContext(r.Context())
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Error("auth: code exchange failed", "error", err)
		http.Error(w, "sign-in failed", http.StatusBadGateway)
		return
	}

	user, err := h.fetchUser(ctx, token)
	if err != nil {
		slog.Error("auth: failed to fetch user info", "error", err)
		http.Error(w, "sign-in failed", http.StatusBadGateway)
		return
	}

	if err := h.setSession(w, *user); err != nil {
		slog.Error("auth: failed to issue session", "error", err)
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}
	slog.Info("auth: user signed in", "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout revokes the Google token when possible and always clears the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if user, err := h.sessions.Validate(cookie.Value); err == nil {
			h.revoke(r.Context(), user.Token)
		}
	}
	h.clearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Middleware attaches the signed-in user, if any, to the request context.
// Expired access tokens are refreshed and the session cookie reissued.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.sessions.Validate(cookie.Value)
		if err != nil {
			slog.Debug("auth: dropping invalid session", "error", err)
			h.clearSession(w)
			next.ServeHTTP(w, r)
			return
		}

		if !user.Token.Valid() {
			fresh, err := h.oauth.TokenSource(h.oauthContext(r.Context()), user.Token).Token()
			if err != nil {
				slog.Info("auth: token refresh failed, signing out", "user_id", user.ID, "error", err)
				h.clearSession(w)
				next.ServeHTTP(w, r)
				return
			}
			user.Token = fresh
			if err := h.setSession(w, *user); err != nil {
				slog.Warn("auth: failed to reissue session", "error", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns nil for signed-out visitors.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}

func (h *Handler) fetchUser(ctx context.Context, token *oauth2.Token) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	resp, err := h.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("userinfo has no id")
	}
	return &User{ID: info.ID, Name: info.Name, Email: info.Email, Picture: info.Picture, Token: token}, nil
}

func (h *Handler) revoke(ctx context.Context, token *oauth2.Token) {
	if token == nil {
		return
	}
	value := token.RefreshToken
	if value == "" {
		value = token.AccessToken
	}
	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := h.http.Do(req)
	if err != nil {
		slog.Warn("auth: token revocation failed", "error", err)
		return
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("auth: token revocation rejected", "status", resp.StatusCode)
	}
}

func (h *Handler) setSession(w http.ResponseWriter, u User) error {
	token, err := h.sessions.Issue(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionDuration / time.Second),
	})
	return nil
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (h *Handler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
