package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/readsync/database"
	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg/notify"
	"github.com/akinalp/readsync/pkg/taskexec"
	"github.com/akinalp/readsync/repository"
)

const localUser = "@me:example.org"

// fakeRemote, homeserver çağrılarını kaydeder.
type fakeRemote struct {
	mu    sync.Mutex
	calls []remoteCall
	err   error
}

type remoteCall struct {
	RoomID  string
	Markers models.ReadMarkersRequest
}

func (f *fakeRemote) SetReadMarkers(ctx context.Context, roomID string, markers models.ReadMarkersRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, remoteCall{RoomID: roomID, Markers: markers})
	return f.err
}

func (f *fakeRemote) Calls() []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remoteCall(nil), f.calls...)
}

func (f *fakeRemote) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testEnv struct {
	db         *database.DB
	events     repository.EventRepository
	receipts   repository.ReadReceiptRepository
	store      ReadStateStore
	resolver   IdentityResolver
	remote     *fakeRemote
	dispatcher *readMarkersDispatcher
	services   *ReadServices
	ingest     SyncIngestService
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "readsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := repository.NewSQLiteEventRepo(db.Conn)
	markers := repository.NewSQLiteReadMarkerRepo(db.Conn)
	receipts := repository.NewSQLiteReadReceiptRepo(db.Conn)
	profiles := repository.NewSQLiteProfileRepo(db.Conn)

	resolver := NewIdentityResolver(profiles, time.Minute)
	t.Cleanup(resolver.Close)
	store := NewReadStateStore(events, markers, receipts, resolver, notify.New())

	executor := taskexec.New(4)
	t.Cleanup(func() { executor.Close(context.Background()) })

	remote := &fakeRemote{}
	dispatcher := NewMutationDispatcher(store, remote, executor, localUser, 5*time.Second).(*readMarkersDispatcher)

	env := &testEnv{
		db:         db,
		events:     events,
		receipts:   receipts,
		store:      store,
		resolver:   resolver,
		remote:     remote,
		dispatcher: dispatcher,
		services:   NewReadServices(store, dispatcher),
		ingest:     NewSyncIngestService(db.Conn, store, resolver),
		now:        time.UnixMilli(1_700_000_000_000),
	}
	dispatcher.now = func() time.Time { return env.now }

	return env
}

func (e *testEnv) appendEvents(t *testing.T, roomID string, events ...models.Event) {
	t.Helper()
	for i := range events {
		events[i].RoomID = roomID
	}
	_, err := e.events.Append(context.Background(), events)
	require.NoError(t, err)
}

func wait(t *testing.T, f *Future) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := f.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "future did not complete")
	return err
}

func nextSnapshot(t *testing.T, sub *ReceiptSubscription) []models.DisplayReceipt {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func strPtr(s string) *string { return &s }
