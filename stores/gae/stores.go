//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/datastore"

	kh "github.com/panyam/keyhole"
)

// Kind constants for Datastore entities
const (
	KindUser         = "User"
	KindUserEmail    = "UserEmail"
	KindUserExternal = "UserExternal"
)

// ============================================================================
// UserStore
// ============================================================================

// UserStore implements kh.UserStore using Google Cloud Datastore
type UserStore struct {
	client    *datastore.Client
	namespace string
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *UserStore) idKey(id int64) *datastore.Key {
	key := datastore.IDKey(KindUser, id, nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) nameKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func externalKeyName(provider, externalID string) string {
	return provider + ":" + externalID
}

func (s *UserStore) GetUserById(ctx context.Context, id uint) (*kh.User, error) {
	if id == 0 {
		return nil, kh.ErrUserNotFound
	}
	var entity UserEntity
	if err := s.client.Get(ctx, s.idKey(int64(id)), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, kh.ErrUserNotFound
		}
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*kh.User, error) {
	email = kh.NormalizeEmail(email)
	if email == "" {
		return nil, kh.ErrUserNotFound
	}
	return s.viaIndex(ctx, s.nameKey(KindUserEmail, email))
}

func (s *UserStore) GetUserByExternalID(ctx context.Context, provider, externalID string) (*kh.User, error) {
	if provider == "" || externalID == "" {
		return nil, kh.ErrUserNotFound
	}
	return s.viaIndex(ctx, s.nameKey(KindUserExternal, externalKeyName(provider, externalID)))
}

// viaIndex follows a unique index entity to its user
func (s *UserStore) viaIndex(ctx context.Context, key *datastore.Key) (*kh.User, error) {
	var marker UniqueEntity
	if err := s.client.Get(ctx, key, &marker); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, kh.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserById(ctx, uint(marker.UserID))
}

// CreateUser writes the user and its index entities in one transaction.
// A concurrent create of the same email retries, finds the index entity and
// fails with kh.ErrUniqueViolation.
func (s *UserStore) CreateUser(ctx context.Context, user *kh.User) error {
	if user.PasswordHash == "" && user.ExternalID == "" {
		return errors.New("user needs a password hash or an external id")
	}
	keys, err := s.client.AllocateIDs(ctx, []*datastore.Key{s.idKey(0)})
	if err != nil {
		return fmt.Errorf("failed to allocate user id: %w", err)
	}
	userKey := keys[0]
	userKey.Namespace = s.namespace

	var uniqueKeys []*datastore.Key
	if user.Email != "" {
		uniqueKeys = append(uniqueKeys, s.nameKey(KindUserEmail, kh.NormalizeEmail(user.Email)))
	}
	if user.ExternalID != "" {
		uniqueKeys = append(uniqueKeys, s.nameKey(KindUserExternal, externalKeyName(user.Provider, user.ExternalID)))
	}

	now := time.Now().UTC()
	_, err = s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		for _, key := range uniqueKeys {
			var existing UniqueEntity
			err := tx.Get(key, &existing)
			if err == nil {
				return fmt.Errorf("%w: %s %q is taken", kh.ErrUniqueViolation, key.Kind, key.Name)
			} else if !errors.Is(err, datastore.ErrNoSuchEntity) {
				return err
			}
		}
		entity := UserToEntity(user, userKey)
		entity.Email = kh.NormalizeEmail(user.Email)
		entity.CreatedAt = now
		if _, err := tx.Put(userKey, entity); err != nil {
			return err
		}
		for _, key := range uniqueKeys {
			if _, err := tx.Put(key, &UniqueEntity{UserID: userKey.ID, CreatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	user.ID = uint(userKey.ID)
	user.CreatedAt = now
	return nil
}

// Open connects to the project named by dsn, which is "project" or
// "project/namespace". DATASTORE_EMULATOR_HOST is honoured by the client.
func Open(ctx context.Context, dsn string) (*UserStore, *datastore.Client, error) {
	project, namespace, _ := strings.Cut(dsn, "/")
	if project == "" {
		return nil, nil, errors.New("datastore dsn needs a project id")
	}
	client, err := datastore.NewClient(ctx, project)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to datastore: %w", err)
	}
	return NewUserStore(client, namespace), client, nil
}
