package keyhole_test

import (
	"context"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kh "github.com/panyam/keyhole"
)

// newSessionContext loads a fresh session into a context
func newSessionContext(t *testing.T, sm *kh.SessionManager) context.Context {
	t.Helper()
	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)
	return ctx
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	sm := kh.NewSessionManager(scs.New(), store)
	user := &kh.User{Email: "hank@example.com", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	ctx := newSessionContext(t, sm)
	anon, err := sm.Resolve(ctx)
	require.NoError(t, err)
	assert.Nil(t, anon)

	token, err := sm.Establish(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	committed, _, err := sm.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, committed)

	_, got, err := sm.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hank@example.com", got.Email)

	require.NoError(t, sm.Terminate(ctx))
	_, got, err = sm.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, got, "terminated sessions are anonymous")
}

func TestEstablishRenewsToken(t *testing.T) {
	store := newTestStore(t)
	sm := kh.NewSessionManager(scs.New(), store)
	user := &kh.User{Email: "ivy@example.com", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	ctx := newSessionContext(t, sm)
	sm.Put(ctx, "visited", true)
	before, _, err := sm.Commit(ctx)
	require.NoError(t, err)

	ctx, err = sm.Load(context.Background(), before)
	require.NoError(t, err)
	after, err := sm.Establish(ctx, user)
	require.NoError(t, err)
	_, _, err = sm.Commit(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	_, got, err := sm.ResolveToken(context.Background(), before)
	require.NoError(t, err)
	assert.Nil(t, got, "the pre-login token must not carry the user")
}

func TestResolveMissingUser(t *testing.T) {
	store := newTestStore(t)
	sm := kh.NewSessionManager(scs.New(), store)

	ctx := newSessionContext(t, sm)
	_, err := sm.Establish(ctx, &kh.User{ID: 9999})
	require.NoError(t, err)

	got, err := sm.Resolve(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, sm.Exists(ctx, kh.SessionUserKey), "dangling user id is removed")
}

func TestResolveStorageError(t *testing.T) {
	broken := &faultyStore{
		UserStore: newTestStore(t),
		byId: func(ctx context.Context, id uint) (*kh.User, error) {
			return nil, errDiskOnFire
		},
	}
	sm := kh.NewSessionManager(scs.New(), broken)
	ctx := newSessionContext(t, sm)
	_, err := sm.Establish(ctx, &kh.User{ID: 1})
	require.NoError(t, err)

	_, err = sm.Resolve(ctx)
	assert.ErrorIs(t, err, kh.ErrStorage)
}
