package settings

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName     = "vixel_settings"
	CookieDuration = 365 * 24 * time.Hour
	issuer         = "vixel-settings"
)

type claims struct {
	Settings Settings `json:"settings"`
	jwt.RegisteredClaims
}

// Store keeps settings in a signed cookie on the visitor's browser.
type Store struct {
	key    []byte
	secure bool
	now    func() time.Time
}

func NewStore(key []byte, secure bool) *Store {
	return &Store{key: key, secure: secure, now: time.Now}
}

// Load returns the visitor's settings. A missing, tampered, expired or
// invalid cookie yields the defaults.
func (st *Store) Load(r *http.Request) Settings {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Defaults()
	}

	c := claims{Settings: Defaults()}
	_, err = jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return st.key, nil
	}, jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(st.now))
	if err != nil {
		slog.Debug("settings: ignoring cookie", "error", err)
		return Defaults()
	}
	if err := c.Settings.Validate(); err != nil {
		slog.Debug("settings: ignoring invalid cookie settings", "error", err)
		return Defaults()
	}
	return c.Settings
}

func (st *Store) Save(w http.ResponseWriter, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	now := st.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Settings: s,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(CookieDuration)),
		},
	})
	signed, err := token.SignedString(st.key)
	if err != nil {
		return fmt.Errorf("sign settings: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(CookieDuration / time.Second),
	})
	return nil
}

func (st *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
