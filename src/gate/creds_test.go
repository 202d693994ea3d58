package gate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/utils"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedPayload(t *testing.T, password string, role types.Role) string {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	payload, err := json.Marshal(cachedCredential{
		Hash:     hash,
		Role:     string(role),
		FullName: "Security Guard One",
	})
	require.NoError(t, err)
	return string(payload)
}

func TestOfflineLoginSuccess(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCredentialCache(rdb)

	mock.ExpectGet("gate:creds:security1").SetVal(cachedPayload(t, "security123", types.ROLE_SECURITY))

	fullName, err := c.OfflineLogin(context.Background(), "security1", "security123")
	assert.NoError(t, err)
	assert.Equal(t, "Security Guard One", fullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfflineLoginNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCredentialCache(rdb)

	mock.ExpectGet("gate:creds:security9").RedisNil()

	_, err := c.OfflineLogin(context.Background(), "security9", "security123")
	assert.ErrorIs(t, err, ErrCredentialsNotCached)
}

func TestOfflineLoginRejectsAdmin(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCredentialCache(rdb)

	mock.ExpectGet("gate:creds:admin").SetVal(cachedPayload(t, "admin123", types.ROLE_ADMIN))

	_, err := c.OfflineLogin(context.Background(), "admin", "admin123")
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestOfflineLoginWrongPassword(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCredentialCache(rdb)

	mock.ExpectGet("gate:creds:security1").SetVal(cachedPayload(t, "security123", types.ROLE_SECURITY))

	_, err := c.OfflineLogin(context.Background(), "security1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestStoreCachesCredential(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCredentialCache(rdb)

	hash, err := utils.HashPassword("security123")
	require.NoError(t, err)
	payload, err := json.Marshal(cachedCredential{
		Hash:     hash,
		Role:     string(types.ROLE_SECURITY),
		FullName: "Security Guard One",
	})
	require.NoError(t, err)

	mock.ExpectSet("gate:creds:security1", string(payload), 720*time.Hour).SetVal("OK")

	err = c.Store(context.Background(), "security1", hash, types.ROLE_SECURITY, "Security Guard One")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
