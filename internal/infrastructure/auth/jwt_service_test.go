package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/glucopredict/domain"
)

const testSecret = "test-jwt-secret"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	clock := newClock()
	svc := NewJWTServiceWithClock(testSecret, time.Hour, clock.Now)

	token, err := svc.Issue("user-123", "test@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	clock.t = clock.t.Add(59 * time.Minute)
	claims, err := svc.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestJWTService_Expired(t *testing.T) {
	clock := newClock()
	svc := NewJWTServiceWithClock(testSecret, time.Hour, clock.Now)

	token, err := svc.Issue("user-123", "test@example.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		advance time.Duration
	}{
		{name: "exactly at expiry", advance: time.Hour},
		{name: "after expiry", advance: 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = newClock().t.Add(tt.advance)
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, domain.ErrTokenExpired)
			assert.Equal(t, domain.KindExpired, domain.KindOf(err))
		})
	}
}

func TestJWTService_Invalid(t *testing.T) {
	clock := newClock()
	svc := NewJWTServiceWithClock(testSecret, time.Hour, clock.Now)

	token, err := svc.Issue("user-123", "test@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	other := NewJWTServiceWithClock("another-secret", time.Hour, clock.Now)
	foreign, err := other.Issue("user-123", "test@example.com")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"iat": clock.t.Unix(),
		"exp": clock.t.Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "tampered signature", token: tampered},
		{name: "wrong secret", token: foreign},
		{name: "alg none", token: unsigned},
		{name: "garbage", token: "not.a.jwt"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, domain.ErrTokenInvalid)
			assert.Equal(t, domain.KindInvalid, domain.KindOf(err))
		})
	}
}

func TestJWTService_DefaultTTL(t *testing.T) {
	clock := newClock()
	svc := NewJWTServiceWithClock(testSecret, 0, clock.Now)

	token, err := svc.Issue("user-1", "a@b.com")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestJWTService_MissingSecret(t *testing.T) {
	svc := NewJWTService("", time.Hour)
	_, err := svc.Issue("user-1", "a@b.com")
	assert.Equal(t, domain.KindConfigMissing, domain.KindOf(err))
}

func TestJWTService_UniqueTokens(t *testing.T) {
	clock := newClock()
	svc := NewJWTServiceWithClock(testSecret, time.Hour, clock.Now)

	t1, err := svc.Issue("user-1", "a@b.com")
	require.NoError(t, err)
	t2, err := svc.Issue("user-1", "a@b.com")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2, "jti should make tokens unique")

	for _, tok := range []string{t1, t2} {
		var claims Claims
		_, _, err := jwt.NewParser().ParseUnverified(tok, &claims)
		require.NoError(t, err)
		_, err = uuid.Parse(claims.ID)
		assert.NoError(t, err, "jti %q should be a uuid", claims.ID)
	}
}
