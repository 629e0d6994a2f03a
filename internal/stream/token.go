package stream

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "hostpulse"

// TokenSource yields the bearer token presented to the backend on connect.
type TokenSource interface {
	Token() (string, error)
}

type StaticToken string

func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

// JWTSource mints a short-lived HS256 token per connection.
type JWTSource struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time
}

func NewJWTSource(secret, subject string, ttl time.Duration) *JWTSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &JWTSource{secret: []byte(secret), subject: subject, ttl: ttl, now: time.Now}
}

func (s *JWTSource) Token() (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func bearer(src TokenSource) (string, error) {
	if src == nil {
		return "", nil
	}
	tok, err := src.Token()
	if err != nil || tok == "" {
		return "", err
	}
	return "Bearer " + tok, nil
}
