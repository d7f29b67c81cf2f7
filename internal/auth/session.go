package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"
)

const (
	SessionCookie   = "vixel_session"
	SessionDuration = 30 * 24 * time.Hour
	sessionIssuer   = "vixel"
)

var ErrInvalidSession = errors.New("invalid session")

// User is the signed-in Google account. Token is never serialized to JSON.
type User struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Picture string        `json:"picture,omitempty"`
	Token   *oauth2.Token `json:"-"`
}

func (u *User) AccessToken() string {
	if u == nil || u.Token == nil {
		return ""
	}
	return u.Token.AccessToken
}

type sessionClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	// Sealed holds the OAuth token encrypted with the sealing key.
	Sealed string `json:"tok"`
	jwt.RegisteredClaims
}

type sealedToken struct {
	AccessToken  string    `json:"a"`
	RefreshToken string    `json:"r,omitempty"`
	Expiry       time.Time `json:"e,omitempty"`
}

// Sessions issues and validates session tokens. The JWT is signed with one
// key and the OAuth token inside it is sealed with another.
type Sessions struct {
	signKey []byte
	sealKey [KeySize]byte
	now     func() time.Time
}

func NewSessions(secret string) (*Sessions, error) {
	signKey, err := DeriveKey(secret, "session-signing")
	if err != nil {
		return nil, err
	}
	sealKey, err := DeriveKey(secret, "session-sealing")
	if err != nil {
		return nil, err
	}
	s := &Sessions{signKey: signKey, now: time.Now}
	copy(s.sealKey[:], sealKey)
	return s, nil
}

func (s *Sessions) Issue(u User) (string, error) {
	if u.ID == "" || u.Token == nil || u.Token.AccessToken == "" {
		return "", errors.New("user id and access token are required")
	}

	payload, err := json.Marshal(sealedToken{
		AccessToken:  u.Token.AccessToken,
		RefreshToken: u.Token.RefreshToken,
		Expiry:       u.Token.Expiry,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token: %w", err)
	}
	sealed, err := s.seal(payload)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := sessionClaims{
		Name:    u.Name,
		Email:   u.Email,
		Picture: u.Picture,
		Sealed:  sealed,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

func (s *Sessions) Validate(tokenStr string) (*User, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signKey, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	payload, err := s.open(claims.Sealed)
	if err != nil {
		return nil, err
	}
	var sealed sealedToken
	if err := json.Unmarshal(payload, &sealed); err != nil {
		return nil, fmt.Errorf("decode sealed token: %w", err)
	}

	return &User{
		ID:      claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
		Token: &oauth2.Token{
			AccessToken:  sealed.AccessToken,
			RefreshToken: sealed.RefreshToken,
			Expiry:       sealed.Expiry,
			TokenType:    "Bearer",
		},
	}, nil
}

func (s *Sessions) seal(plaintext []byte) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], plaintext, &nonce, &s.sealKey)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *Sessions) open(encoded string) ([]byte, error) {
	box, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(box) < 24+secretbox.Overhead {
		return nil, ErrInvalidSession
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plaintext, ok := secretbox.Open(nil, box[24:], &nonce, &s.sealKey)
	if !ok {
		return nil, ErrInvalidSession
	}
	return plaintext, nil
}
