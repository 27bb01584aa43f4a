package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/charstudio/internal/config"
)

func newTestVerifier(t *testing.T, cfg config.AuthConfig) *Verifier {
	t.Helper()
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "super-secret"
	}
	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	return v
}

func TestVerifier_IssueAndVerify(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, config.AuthConfig{Issuer: "https://id.example.com", Audience: "charstudio"})

	tok, err := v.Issue("user-123", time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", got)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, config.AuthConfig{})

	t.Run("empty", func(t *testing.T) {
		_, err := v.Verify("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := v.Issue("u1", -time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestVerifier(t, config.AuthConfig{JWTSecret: "other-secret"})
		tok, err := other.Issue("u2", time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u3"}).
			SignedString([]byte("super-secret"))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty subject", func(t *testing.T) {
		tok, err := v.Issue("", time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "u4",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifier_IssuerAndAudience(t *testing.T) {
	t.Parallel()

	strict := newTestVerifier(t, config.AuthConfig{Issuer: "https://id.example.com", Audience: "charstudio"})
	loose := newTestVerifier(t, config.AuthConfig{Issuer: "https://other.example.com"})

	tok, err := loose.Issue("user-1", time.Hour)
	require.NoError(t, err)

	_, err = strict.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(config.AuthConfig{})
	assert.Error(t, err)
}
