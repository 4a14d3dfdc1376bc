package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("test-secret-key", "renthub-test", 15*time.Minute, 7*24*time.Hour)
}

func TestManager_GenerateTokenPair(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("user-1", "user@example.com", "user")

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)
}

func TestManager_ValidateToken(t *testing.T) {
	m := newTestManager()

	t.Run("验证合法令牌", func(t *testing.T) {
		pair, err := m.GenerateTokenPair("user-1", "user@example.com", "admin")
		require.NoError(t, err)

		claims, err := m.ValidateToken(pair.AccessToken)

		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "user@example.com", claims.Email)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "renthub-test", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("拒绝过期令牌", func(t *testing.T) {
		expired := NewManager("test-secret-key", "renthub-test", -time.Minute, -time.Minute)
		pair, err := expired.GenerateTokenPair("user-1", "user@example.com", "user")
		require.NoError(t, err)

		claims, err := m.ValidateToken(pair.AccessToken)

		assert.Nil(t, claims)
		assert.Equal(t, ErrExpiredToken, err)
	})

	t.Run("拒绝其他密钥签发的令牌", func(t *testing.T) {
		other := NewManager("another-secret", "renthub-test", 15*time.Minute, time.Hour)
		pair, err := other.GenerateTokenPair("user-1", "user@example.com", "user")
		require.NoError(t, err)

		claims, err := m.ValidateToken(pair.AccessToken)

		assert.Nil(t, claims)
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("拒绝格式错误的令牌", func(t *testing.T) {
		claims, err := m.ValidateToken("not.a.token")

		assert.Nil(t, claims)
		assert.Equal(t, ErrInvalidToken, err)
	})
}

func TestManager_RefreshAccessToken(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("user-1", "user@example.com", "user")
	require.NoError(t, err)

	t.Run("刷新得到可用的访问令牌", func(t *testing.T) {
		accessToken, err := m.RefreshAccessToken(pair.RefreshToken)

		require.NoError(t, err)
		claims, err := m.ValidateToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("无效的刷新令牌被拒绝", func(t *testing.T) {
		accessToken, err := m.RefreshAccessToken("garbage")

		assert.Empty(t, accessToken)
		assert.Equal(t, ErrInvalidToken, err)
	})
}

func TestManager_ExtractUserID(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("user-42", "user@example.com", "user")
	require.NoError(t, err)

	userID, err := m.ExtractUserID(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}
