// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pardisweb/darban/internal/config"
	"github.com/pardisweb/darban/internal/core"
)

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		Secret:   "0123456789abcdef0123456789abcdef",
		Expire:   time.Hour,
		Issuer:   "darban",
		Audience: "darban-api",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	token, err := tm.Issue("subject-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "subject-42", claims.SubjectID)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
}

func TestVerifyExpiredToken(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Expire = -time.Hour

	tm, err := NewTokenManager(cfg)
	require.NoError(t, err)

	token, err := tm.Issue("subject-42")
	require.NoError(t, err)

	_, err = tm.Verify(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestVerifyTamperedToken(t *testing.T) {
	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	token, err := tm.Issue("subject-42")
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"

	_, err = tm.Verify(context.Background(), tampered)
	assert.ErrorIs(t, err, core.ErrInvalidCredential)
}

func TestVerifyWrongSecret(t *testing.T) {
	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	token, err := tm.Issue("subject-42")
	require.NoError(t, err)

	otherCfg := testTokenConfig()
	otherCfg.Secret = "ffffffffffffffffffffffffffffffff"

	other, err := NewTokenManager(otherCfg)
	require.NoError(t, err)

	_, err = other.Verify(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrInvalidCredential)
}

func TestVerifyGarbage(t *testing.T) {
	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tm.Verify(context.Background(), input)
		assert.ErrorIs(t, err, core.ErrInvalidCredential, input)
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	otherCfg := testTokenConfig()
	otherCfg.Issuer = "someone-else"

	other, err := NewTokenManager(otherCfg)
	require.NoError(t, err)

	token, err := other.Issue("subject-42")
	require.NoError(t, err)

	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	// An issuer mismatch is an invalid credential, never an expiry: the two
	// codes drive different client behavior.
	_, err = tm.Verify(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrInvalidCredential)
	assert.NotErrorIs(t, err, core.ErrTokenExpired)
}

func TestVerifyWrongAudience(t *testing.T) {
	otherCfg := testTokenConfig()
	otherCfg.Audience = "someone-elses-api"

	other, err := NewTokenManager(otherCfg)
	require.NoError(t, err)

	token, err := other.Issue("subject-42")
	require.NoError(t, err)

	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	_, err = tm.Verify(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrInvalidCredential)
	assert.NotErrorIs(t, err, core.ErrTokenExpired)
}
