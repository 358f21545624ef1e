package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/dayledger/internal/identity"
	"example.com/dayledger/internal/ledger"
)

func TestManagerBuildsSessionOnSignIn(t *testing.T) {
	auth := newFakeAuth()
	store := &captureStore{}
	manager := NewManager(auth, store, &recordingPresenter{}, testDate)

	manager.Start(context.Background())
	require.Nil(t, manager.Session(), "no session while signed out")

	auth.signIn(&identity.Principal{UID: "uid-1", Email: "a@b.c"})

	s := manager.Session()
	require.NotNil(t, s)
	require.Equal(t, testDate, s.Date())
	require.Equal(t, "uid-1", store.lastUserID, "repository scoped by the principal's store handle")

	auth.signOut()
	require.Nil(t, manager.Session(), "session torn down on sign-out")
}

func TestManagerUsesSanitizedEmailWhenUIDMissing(t *testing.T) {
	auth := newFakeAuth()
	store := &captureStore{}
	manager := NewManager(auth, store, &recordingPresenter{}, testDate)

	manager.Start(context.Background())
	auth.signIn(&identity.Principal{Email: "a.b@c.d"})

	require.Equal(t, "a_b_c_d", store.lastUserID)
}

func TestManagerReplaysCurrentPrincipalOnStart(t *testing.T) {
	auth := newFakeAuth()
	auth.current = &identity.Principal{UID: "uid-2", Email: "x@y.z"}
	manager := NewManager(auth, &captureStore{}, &recordingPresenter{}, testDate)

	manager.Start(context.Background())
	require.NotNil(t, manager.Session(), "already-signed-in principal picked up at startup")

	manager.Stop()
	auth.signIn(&identity.Principal{UID: "uid-3"})
	require.Nil(t, manager.Session(), "stopped manager ignores further changes")
}

// fakeAuth is an in-process AuthSource.
type fakeAuth struct {
	current  *identity.Principal
	handlers []func(*identity.Principal)
}

func newFakeAuth() *fakeAuth { return &fakeAuth{} }

func (f *fakeAuth) OnPrincipalChanged(handler func(*identity.Principal)) func() {
	f.handlers = append(f.handlers, handler)
	handler(f.current)
	at := len(f.handlers) - 1
	return func() { f.handlers[at] = func(*identity.Principal) {} }
}

func (f *fakeAuth) Token(ctx context.Context) (string, error) { return "token", nil }

func (f *fakeAuth) signIn(p *identity.Principal) {
	f.current = p
	for _, handler := range f.handlers {
		handler(p)
	}
}

func (f *fakeAuth) signOut() {
	f.current = nil
	for _, handler := range f.handlers {
		handler(nil)
	}
}

// captureStore records the user scope of the last call.
type captureStore struct {
	lastUserID string
}

func (c *captureStore) GetDay(ctx context.Context, token, userID, date string) ([]ledger.Entry, error) {
	c.lastUserID = userID
	return nil, nil
}

func (c *captureStore) Push(ctx context.Context, token, userID, date string, activity ledger.Activity) (string, error) {
	c.lastUserID = userID
	return "id-1", nil
}

func (c *captureStore) Patch(ctx context.Context, token, userID, date, id string, activity ledger.Activity) error {
	c.lastUserID = userID
	return nil
}

func (c *captureStore) Delete(ctx context.Context, token, userID, date, id string) error {
	c.lastUserID = userID
	return nil
}
