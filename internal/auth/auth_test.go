package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))

	ok, err := VerifyPassword("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salted")
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, h := range []string{"", "hash", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=19$m=x$aa$bb"} {
		_, err := VerifyPassword("x", h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func TestTokens(t *testing.T) {
	Init("test-secret", time.Hour)

	token, err := GenerateToken(7)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "7", claims.Subject)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)

	Init("other-secret", time.Hour)
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	Init("test-secret", time.Hour)

	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRequiresInit(t *testing.T) {
	mu.Lock()
	saved := secret
	secret = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		secret = saved
		mu.Unlock()
	})

	_, err := GenerateToken(1)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
