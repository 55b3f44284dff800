package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(clock *fakeClock) *TokenService {
	return NewTokenService("test-secret", WithClock(clock.Now))
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	for _, id := range []int64{1, 42, 9_007_199_254_740_993} {
		token, err := svc.IssueAccessToken(id)
		require.NoError(t, err)

		got, err := svc.VerifyAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestAccessToken_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	token, err := svc.IssueAccessToken(7)
	require.NoError(t, err)

	clock.t = clock.t.Add(AccessTokenTTL - time.Second)
	_, err = svc.VerifyAccessToken(token)
	require.NoError(t, err, "token should still be valid one second before expiry")

	clock.t = clock.t.Add(2 * time.Second)
	_, err = svc.VerifyAccessToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResetToken_RoundTripAndExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	token, err := svc.IssueResetToken(3)
	require.NoError(t, err)

	got, err := svc.VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	clock.t = clock.t.Add(ResetTokenTTL + time.Second)
	_, err = svc.VerifyResetToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_PurposeIsolation(t *testing.T) {
	svc := NewTokenService("test-secret")

	reset, err := svc.IssueResetToken(5)
	require.NoError(t, err)
	_, err = svc.VerifyAccessToken(reset)
	assert.ErrorIs(t, err, ErrUnauthorized, "reset token must not authenticate requests")

	access, err := svc.IssueAccessToken(5)
	require.NoError(t, err)
	_, err = svc.VerifyResetToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token must not reset passwords")
}

func TestTokens_WrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").IssueAccessToken(1)
	require.NoError(t, err)

	_, err = NewTokenService("secret-b").VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokens_Malformed(t *testing.T) {
	svc := NewTokenService("test-secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.VerifyAccessToken(token)
		assert.ErrorIs(t, err, ErrUnauthorized, "token %q", token)
		_, err = svc.VerifyResetToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestTokens_BadSubject(t *testing.T) {
	secret := []byte("test-secret")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		claims jwt.Claims
	}{
		{"missing subject", jwt.RegisteredClaims{ExpiresAt: exp}},
		{"non-numeric subject", jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp}},
	}

	svc := NewTokenService(string(secret))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString(secret)
			require.NoError(t, err)

			_, err = svc.VerifyAccessToken(token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := NewTokenService(string(secret))
	for _, token := range []string{hs512, none} {
		_, err := svc.VerifyAccessToken(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestTokens_RequireExpiry(t *testing.T) {
	secret := []byte("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenService(string(secret)).VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokens_UniquePerIssue(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	a, err := svc.IssueAccessToken(1)
	require.NoError(t, err)
	b, err := svc.IssueAccessToken(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
