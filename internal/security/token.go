package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	purposePasswordReset = "password_reset"

	DefaultAccessTTL = 8 * 24 * time.Hour
	DefaultResetTTL  = 48 * time.Hour
)

// ErrInvalidToken covers every reason a token is rejected.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the access token payload: sub and exp only.
type AccessClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose,omitempty"`
}

// TokenService signs and verifies HS256 tokens with one shared secret.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL, resetTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &TokenService{secret: []byte(secret), accessTTL: accessTTL, resetTTL: resetTTL, now: time.Now}
}

// WithClock swaps the time source; used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// CreateAccessToken signs {sub, exp} with exp = now + ttl.
func (s *TokenService) CreateAccessToken(subject string, ttl time.Duration) (string, error) {
	claims := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueAccessToken uses the configured access ttl.
func (s *TokenService) IssueAccessToken(subject string) (string, error) {
	return s.CreateAccessToken(subject, s.accessTTL)
}

// ParseAccessToken verifies signature and expiry. Reset tokens are refused.
func (s *TokenService) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) CreatePasswordResetToken(email string) (string, error) {
	now := s.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
		Purpose: purposePasswordReset,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParsePasswordResetToken returns the email the token was issued for.
func (s *TokenService) ParsePasswordResetToken(token string) (string, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims); err != nil {
		return "", err
	}
	if claims.Purpose != purposePasswordReset || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *TokenService) parse(token string, claims *AccessClaims) error {
	t, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !t.Valid {
		return ErrInvalidToken
	}
	return nil
}
