package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AccessTokenTTL is how long an access token stays valid.
	AccessTokenTTL = 7 * 24 * time.Hour
	// ResetTokenTTL is how long a password reset token stays valid.
	ResetTokenTTL = 30 * time.Minute

	purposeReset = "reset"
)

var (
	// ErrUnauthorized is returned when an access token cannot be accepted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken is returned when a reset token cannot be accepted.
	ErrInvalidToken = errors.New("invalid or expired reset token")
)

// Claims is the signed payload of both token kinds. Purpose is empty for
// access tokens.
type Claims struct {
	Purpose string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens with a single secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueAccessToken returns a token identifying userID for AccessTokenTTL.
func (s *TokenService) IssueAccessToken(userID int64) (string, error) {
	return s.issue(userID, "", AccessTokenTTL)
}

// IssueResetToken returns a password reset token for userID valid for ResetTokenTTL.
func (s *TokenService) IssueResetToken(userID int64) (string, error) {
	return s.issue(userID, purposeReset, ResetTokenTTL)
}

func (s *TokenService) issue(userID int64, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken returns the user id carried by an access token.
// Reset tokens are rejected.
func (s *TokenService) VerifyAccessToken(token string) (int64, error) {
	claims, userID, err := s.parse(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Purpose != "" {
		return 0, fmt.Errorf("%w: token purpose %q", ErrUnauthorized, claims.Purpose)
	}
	return userID, nil
}

// VerifyResetToken returns the user id carried by a password reset token.
func (s *TokenService) VerifyResetToken(token string) (int64, error) {
	claims, userID, err := s.parse(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != purposeReset {
		return 0, fmt.Errorf("%w: not a reset token", ErrInvalidToken)
	}
	return userID, nil
}

func (s *TokenService) parse(token string) (*Claims, int64, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, 0, err
	}

	if claims.Subject == "" {
		return nil, 0, errors.New("token missing subject")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("non-numeric subject: %w", err)
	}
	return claims, userID, nil
}
