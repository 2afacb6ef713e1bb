package keyhole_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"

	kh "github.com/panyam/keyhole"
	gormstore "github.com/panyam/keyhole/stores/gorm"
)

// newTestStore returns a migrated sqlite user store in a temp dir
func newTestStore(t *testing.T) *gormstore.UserStore {
	t.Helper()
	db, err := gormstore.Open(kh.DriverSQLite, filepath.Join(t.TempDir(), "keyhole.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gormstore.NewUserStore(db)
}

// countingHasher is a low cost bcrypt hasher that counts its calls
type countingHasher struct {
	kh.BcryptHasher
	hashes   atomic.Int32
	compares atomic.Int32
}

func newCountingHasher() *countingHasher {
	return &countingHasher{BcryptHasher: kh.BcryptHasher{Cost: bcrypt.MinCost}}
}

func (c *countingHasher) Hash(plaintext string) (string, error) {
	c.hashes.Add(1)
	return c.BcryptHasher.Hash(plaintext)
}

func (c *countingHasher) Compare(hash, plaintext string) (bool, error) {
	c.compares.Add(1)
	return c.BcryptHasher.Compare(hash, plaintext)
}

var errDiskOnFire = errors.New("disk on fire")

// faultyStore wraps a UserStore and lets tests override individual lookups
type faultyStore struct {
	kh.UserStore
	byEmail    func(ctx context.Context, email string) (*kh.User, error)
	byExternal func(ctx context.Context, provider, externalID string) (*kh.User, error)
	byId       func(ctx context.Context, id uint) (*kh.User, error)
	create     func(ctx context.Context, user *kh.User) error
}

func (f *faultyStore) GetUserByEmail(ctx context.Context, email string) (*kh.User, error) {
	if f.byEmail != nil {
		return f.byEmail(ctx, email)
	}
	return f.UserStore.GetUserByEmail(ctx, email)
}

func (f *faultyStore) GetUserByExternalID(ctx context.Context, provider, externalID string) (*kh.User, error) {
	if f.byExternal != nil {
		return f.byExternal(ctx, provider, externalID)
	}
	return f.UserStore.GetUserByExternalID(ctx, provider, externalID)
}

func (f *faultyStore) GetUserById(ctx context.Context, id uint) (*kh.User, error) {
	if f.byId != nil {
		return f.byId(ctx, id)
	}
	return f.UserStore.GetUserById(ctx, id)
}

func (f *faultyStore) CreateUser(ctx context.Context, user *kh.User) error {
	if f.create != nil {
		return f.create(ctx, user)
	}
	return f.UserStore.CreateUser(ctx, user)
}
