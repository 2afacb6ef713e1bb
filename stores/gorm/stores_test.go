package gorm_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	kh "github.com/panyam/keyhole"
	gormstore "github.com/panyam/keyhole/stores/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gormstore.Open(kh.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, gormstore.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := gormstore.Open("oracle", "dsn")
	assert.Error(t, err)
}

func TestUserStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := gormstore.NewUserStore(openTestDB(t))

	local := &kh.User{Email: "ann@example.com", PasswordHash: "digest"}
	require.NoError(t, store.CreateUser(ctx, local))
	assert.NotZero(t, local.ID)
	assert.False(t, local.CreatedAt.IsZero())

	external := &kh.User{Provider: "facebook", ExternalID: "fb-1"}
	require.NoError(t, store.CreateUser(ctx, external))
	assert.Greater(t, external.ID, local.ID)

	got, err := store.GetUserById(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, "digest", got.PasswordHash)

	got, err = store.GetUserByEmail(ctx, " ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, local.ID, got.ID)

	got, err = store.GetUserByExternalID(ctx, "facebook", "fb-1")
	require.NoError(t, err)
	assert.Equal(t, external.ID, got.ID)
	assert.Empty(t, got.Email)
}

func TestUserStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := gormstore.NewUserStore(openTestDB(t))

	_, err := store.GetUserById(ctx, 42)
	assert.ErrorIs(t, err, kh.ErrUserNotFound)
	_, err = store.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, kh.ErrUserNotFound)
	_, err = store.GetUserByEmail(ctx, "")
	assert.ErrorIs(t, err, kh.ErrUserNotFound)
	_, err = store.GetUserByExternalID(ctx, "facebook", "nope")
	assert.ErrorIs(t, err, kh.ErrUserNotFound)
}

func TestUserStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	store := gormstore.NewUserStore(openTestDB(t))

	require.NoError(t, store.CreateUser(ctx, &kh.User{Email: "bo@example.com", PasswordHash: "a"}))
	err := store.CreateUser(ctx, &kh.User{Email: "bo@example.com", PasswordHash: "b"})
	assert.ErrorIs(t, err, kh.ErrUniqueViolation)

	require.NoError(t, store.CreateUser(ctx, &kh.User{Provider: "github", ExternalID: "1"}))
	err = store.CreateUser(ctx, &kh.User{Provider: "github", ExternalID: "1"})
	assert.ErrorIs(t, err, kh.ErrUniqueViolation)

	// empty emails are stored as NULL and never collide
	require.NoError(t, store.CreateUser(ctx, &kh.User{Provider: "github", ExternalID: "2"}))
	require.NoError(t, store.CreateUser(ctx, &kh.User{Provider: "google", ExternalID: "1"}))
}

func TestUserStoreRejectsUserWithoutCredentials(t *testing.T) {
	store := gormstore.NewUserStore(openTestDB(t))
	assert.Error(t, store.CreateUser(context.Background(), &kh.User{Email: "cy@example.com"}))
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store := gormstore.NewSessionStore(openTestDB(t))

	require.NoError(t, store.CommitCtx(ctx, "tok", []byte("one"), time.Now().Add(time.Hour)))
	b, found, err := store.FindCtx(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("one"), b)

	require.NoError(t, store.Commit("tok", []byte("two"), time.Now().Add(time.Hour)))
	b, found, err = store.Find("tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("two"), b)

	require.NoError(t, store.Delete("tok"))
	_, found, err = store.Find("tok")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := gormstore.NewSessionStore(openTestDB(t))

	require.NoError(t, store.CommitCtx(ctx, "old", []byte("x"), time.Now().Add(-time.Minute)))
	require.NoError(t, store.CommitCtx(ctx, "new", []byte("y"), time.Now().Add(time.Hour)))

	_, found, err := store.FindCtx(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found, "expired sessions are not returned")

	n, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, found, err = store.FindCtx(ctx, "new")
	require.NoError(t, err)
	assert.True(t, found)
}
