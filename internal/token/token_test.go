package token

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillswap/backend/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserToken{}))
	return db
}

func TestIssueAndParse(t *testing.T) {
	issuer := &Issuer{Secret: []byte("test-secret")}
	userID := uuid.New()

	tokenStr, err := issuer.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims, err := issuer.Parse(tokenStr)
	require.NoError(t, err)

	got, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, userID, got)
	require.False(t, claims.Expired(time.Now()))
	require.WithinDuration(t, time.Now().Add(TTL), claims.ExpiresAt.Time, time.Minute)
}

func TestParseRejectsTampering(t *testing.T) {
	issuer := &Issuer{Secret: []byte("test-secret")}
	tokenStr, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = issuer.Parse(tokenStr + "x")
	require.Error(t, err)

	other := &Issuer{Secret: []byte("other-secret")}
	_, err = other.Parse(tokenStr)
	require.Error(t, err)

	_, err = issuer.Parse("not-a-token")
	require.Error(t, err)
}

func TestParseKeepsExpiredTokens(t *testing.T) {
	issuer := &Issuer{Secret: []byte("test-secret")}
	tokenStr, err := issuer.IssueAt(uuid.New(), time.Now().Add(-2*TTL))
	require.NoError(t, err)

	claims, err := issuer.Parse(tokenStr)
	require.NoError(t, err)
	require.True(t, claims.Expired(time.Now()))
}

func TestRegistryAppendRevokeContains(t *testing.T) {
	reg := &Registry{DB: initTestDB(t)}
	ctx := context.Background()
	userID := uuid.New()

	ok, err := reg.Contains(ctx, userID, "t1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, reg.Append(ctx, userID, "t1"))
	require.NoError(t, reg.Append(ctx, userID, "t2"))

	ok, err = reg.Contains(ctx, userID, "t1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, reg.Revoke(ctx, userID, "t1"))

	ok, err = reg.Contains(ctx, userID, "t1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = reg.Contains(ctx, userID, "t2")
	require.NoError(t, err)
	require.True(t, ok)

	// revoking an absent token is a no-op
	require.NoError(t, reg.Revoke(ctx, userID, "t1"))
}

func TestRegistryRevokeFirstOccurrence(t *testing.T) {
	reg := &Registry{DB: initTestDB(t)}
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, reg.Append(ctx, userID, "dup"))
	require.NoError(t, reg.Append(ctx, userID, "dup"))

	require.NoError(t, reg.Revoke(ctx, userID, "dup"))

	ok, err := reg.Contains(ctx, userID, "dup")
	require.NoError(t, err)
	require.True(t, ok)

	var rows []models.UserToken
	require.NoError(t, reg.DB.Where("user_id = ?", userID).Find(&rows).Error)
	require.Len(t, rows, 1)
}

func TestRegistryScopedPerUser(t *testing.T) {
	reg := &Registry{DB: initTestDB(t)}
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, reg.Append(ctx, alice, "shared"))

	ok, err := reg.Contains(ctx, bob, "shared")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, reg.Revoke(ctx, bob, "shared"))
	ok, err = reg.Contains(ctx, alice, "shared")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegistryEvictsOldestPastCap(t *testing.T) {
	reg := &Registry{DB: initTestDB(t)}
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i <= MaxPerUser; i++ {
		require.NoError(t, reg.Append(ctx, userID, "tok"+string(rune('a'+i))))
	}

	var count int64
	require.NoError(t, reg.DB.Model(&models.UserToken{}).Where("user_id = ?", userID).Count(&count).Error)
	require.Equal(t, int64(MaxPerUser), count)

	ok, err := reg.Contains(ctx, userID, "toka")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegistryReplace(t *testing.T) {
	reg := &Registry{DB: initTestDB(t)}
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, reg.Append(ctx, userID, "old"))
	require.NoError(t, reg.Replace(ctx, userID, "old", "new"))

	ok, err := reg.Contains(ctx, userID, "old")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = reg.Contains(ctx, userID, "new")
	require.NoError(t, err)
	require.True(t, ok)
}
