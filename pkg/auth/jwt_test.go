package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getflash/salesops/pkg/cache"
	"github.com/getflash/salesops/pkg/logger"
)

const testSecret = "test-secret"

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("u1", "jdoe", RoleRep, testSecret, 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, RoleRep, claims.Role)
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("u1", "jdoe", RoleRep, testSecret, 1)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateJWTGarbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token", testSecret)
	assert.Error(t, err)
}

func TestBlacklistRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient, err := cache.NewClient("redis://"+mr.Addr(), logger.Default())
	require.NoError(t, err)
	t.Cleanup(func() { redisClient.Close() })

	blacklist := NewTokenBlacklist(redisClient)
	ctx := context.Background()

	token, err := GenerateJWT("u1", "jdoe", RoleRep, testSecret, 1)
	require.NoError(t, err)

	_, err = ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	require.NoError(t, err)

	require.NoError(t, blacklist.Add(ctx, token, time.Hour))

	revoked, err := blacklist.IsBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword("s3cret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("s3cret!", ""))
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, Can(RoleManager, PermViewAllReps))
	assert.True(t, Can(RoleAdmin, PermDeleteSubmissions))
	assert.True(t, Can(RoleRep, PermExportData))

	assert.False(t, Can(RoleRep, PermViewAllReps))
	assert.False(t, Can(RoleRep, PermDeleteSubmissions))
	assert.False(t, Can("intern", PermExportData))
	assert.False(t, Can("", PermViewAllReps))
}
