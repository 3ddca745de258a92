package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-for-testing-only"

func TestMintAndParseTokens(t *testing.T) {
	id := Identity{UserID: 42, Email: "spartan@example.com", Role: "admin"}

	pair, err := MintTokens(id, testSecret, time.Minute, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := ParseAccessToken(pair.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseAccessToken(pair.RefreshToken, testSecret)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	refresh, err := ParseRefreshToken(pair.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "spartan@example.com", refresh.Email)
}

func TestParseClaims_Rejects(t *testing.T) {
	id := Identity{UserID: 1, Email: "a@b.c", Role: "user"}

	expired, err := MintTokens(id, testSecret, -time.Minute, -time.Minute)
	require.NoError(t, err)
	_, err = ParseClaims(expired.AccessToken, testSecret)
	assert.Error(t, err, "expired token must be rejected")

	valid, err := MintTokens(id, testSecret, time.Minute, time.Minute)
	require.NoError(t, err)
	_, err = ParseClaims(valid.AccessToken, "another-secret")
	assert.Error(t, err, "token signed with another secret must be rejected")

	_, err = ParseClaims("not-a-token", testSecret)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("furioso-2024", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "furioso-2024"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
