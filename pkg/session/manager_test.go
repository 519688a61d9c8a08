package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todusapp/mailshell/pkg/kvs"
	"github.com/todusapp/mailshell/pkg/logging"
)

// fakeBackend scripts GetSession/SignOut responses.
type fakeBackend struct {
	refreshed  string
	valid      bool
	err        error
	calls      int
	signedOut  []string
	signOutErr error
}

func (f *fakeBackend) GetSession(ctx context.Context, token string) (string, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	if !f.valid {
		return "", false, nil
	}
	if f.refreshed != "" {
		return f.refreshed, true, nil
	}
	return token, true, nil
}

func (f *fakeBackend) SignOut(ctx context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return f.signOutErr
}

func newTestManager(t *testing.T, backend Backend) (*Manager, *Store) {
	t.Helper()
	kv, err := kvs.NewMemoryStore("test", kvs.MemoryConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	store := NewStore(kv)
	return NewManager(store, backend, logging.Nop()), store
}

func TestManager_BootstrapWithoutSession(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, nil)

	assert.Equal(t, StatusBootstrapping, mgr.Status())

	mgr.Bootstrap(ctx)

	assert.Equal(t, StatusUnauthenticated, mgr.Status())
	assert.Nil(t, mgr.Current())
}

func TestManager_BootstrapRestoresLiveSession(t *testing.T) {
	ctx := context.Background()
	mgr, store := newTestManager(t, nil)

	sess := NewBearer("tok", ptr(time.Now().Add(time.Hour).UnixMilli()), time.Now())
	require.NoError(t, store.Set(ctx, sess))
	require.NoError(t, store.SetLastPath(ctx, "/mail/sent"))

	mgr.Bootstrap(ctx)

	assert.Equal(t, StatusAuthenticated, mgr.Status())
	require.NotNil(t, mgr.Current())
	assert.Equal(t, "tok", mgr.Current().Token)
	assert.Equal(t, "/mail/sent", mgr.CurrentPath())
}

func TestManager_BootstrapClearsExpiredSession(t *testing.T) {
	ctx := context.Background()
	mgr, store := newTestManager(t, nil)

	expired := NewBearer("tok", ptr(time.Now().Add(-time.Minute).UnixMilli()), time.Now())
	require.NoError(t, store.Set(ctx, expired))

	mgr.Bootstrap(ctx)

	assert.Equal(t, StatusUnauthenticated, mgr.Status())

	// The store was cleared, not just the published state.
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_BootstrapSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	kv, err := kvs.NewMemoryStore("test", kvs.MemoryConfig{})
	require.NoError(t, err)
	require.NoError(t, kv.Close())
	mgr := NewManager(NewStore(kv), nil, logging.Nop())

	mgr.Bootstrap(ctx)

	assert.Equal(t, StatusUnauthenticated, mgr.Status())
}

func TestManager_RevalidateRejectionClearsSession(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{valid: false}
	mgr, store := newTestManager(t, backend)

	require.NoError(t, mgr.SetBearer(ctx, "tok", nil))
	mgr.Revalidate(ctx)

	assert.Equal(t, StatusUnauthenticated, mgr.Status())
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_RevalidateNetworkFailureIsLenient(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{err: errors.New("connection refused")}
	mgr, _ := newTestManager(t, backend)

	require.NoError(t, mgr.SetBearer(ctx, "tok", nil))
	mgr.Revalidate(ctx)

	// Still authenticated: transient failures never force logout.
	assert.Equal(t, StatusAuthenticated, mgr.Status())
	require.NotNil(t, mgr.Current())
	assert.Equal(t, "tok", mgr.Current().Token)
}

func TestManager_RevalidateStoresRotatedToken(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{valid: true, refreshed: "tok-2"}
	mgr, store := newTestManager(t, backend)

	expiry := ptr(time.Now().Add(time.Hour).UnixMilli())
	require.NoError(t, mgr.SetBearer(ctx, "tok-1", expiry))
	mgr.Revalidate(ctx)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-2", got.Token)
	// Rotation preserves the original expiry.
	assert.Equal(t, expiry, got.ExpiresAt)
}

func TestManager_RevalidateSameTokenIsNoop(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{valid: true}
	mgr, _ := newTestManager(t, backend)

	require.NoError(t, mgr.SetBearer(ctx, "tok", nil))
	before := mgr.Current()
	mgr.Revalidate(ctx)

	assert.Equal(t, before, mgr.Current())
	assert.Equal(t, 1, backend.calls)
}

func TestManager_RevalidateIgnoresCookieSession(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{valid: false}
	mgr, _ := newTestManager(t, backend)

	require.NoError(t, mgr.SetCookie(ctx))
	mgr.Revalidate(ctx)

	assert.Equal(t, StatusAuthenticated, mgr.Status())
	assert.Zero(t, backend.calls)
}

func TestManager_SignOutRevokesAndClears(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{valid: true}
	mgr, store := newTestManager(t, backend)

	require.NoError(t, mgr.SetBearer(ctx, "tok", nil))
	mgr.SignOut(ctx)

	assert.Equal(t, []string{"tok"}, backend.signedOut)
	assert.Equal(t, StatusUnauthenticated, mgr.Status())
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_SignOutSurvivesBackendFailure(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{valid: true, signOutErr: errors.New("boom")}
	mgr, _ := newTestManager(t, backend)

	require.NoError(t, mgr.SetBearer(ctx, "tok", nil))
	mgr.SignOut(ctx)

	assert.Equal(t, StatusUnauthenticated, mgr.Status())
}

func TestManager_SubscribeObservesChanges(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, nil)

	ch, cancel := mgr.Subscribe()
	defer cancel()

	mgr.Bootstrap(ctx)
	change := <-ch
	assert.Equal(t, StatusUnauthenticated, change.Status)
	assert.Nil(t, change.Session)

	require.NoError(t, mgr.SetBearer(ctx, "tok", nil))
	change = <-ch
	assert.Equal(t, StatusAuthenticated, change.Status)
	require.NotNil(t, change.Session)
	assert.Equal(t, "tok", change.Session.Token)
}

func TestManager_SubscribeCancelCloses(t *testing.T) {
	mgr, _ := newTestManager(t, nil)

	ch, cancel := mgr.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice is fine.
	cancel()
}

func TestManager_SetCurrentPathNormalizes(t *testing.T) {
	ctx := context.Background()
	mgr, store := newTestManager(t, nil)

	require.NoError(t, mgr.SetCurrentPath(ctx, "https://todus.app/settings/general?tab=profile"))

	assert.Equal(t, "/settings/general?tab=profile", mgr.CurrentPath())
	path, err := store.LastPath(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/settings/general?tab=profile", path)
}
