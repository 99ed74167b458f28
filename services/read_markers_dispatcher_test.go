package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/pkg/taskexec"
)

type blockingRemote struct {
	release chan struct{}
	fakeRemote
}

func (b *blockingRemote) SetReadMarkers(ctx context.Context, roomID string, markers models.ReadMarkersRequest) error {
	<-b.release
	return b.fakeRemote.SetReadMarkers(ctx, roomID, markers)
}

func TestSubmit_DoesNotBlockCaller(t *testing.T) {
	env := newTestEnv(t)
	remote := &blockingRemote{release: make(chan struct{})}
	env.dispatcher.remote = remote

	f := env.dispatcher.Submit(room, nil, strPtr("$E1"))

	select {
	case <-f.Done():
		t.Fatal("future completed before the remote call returned")
	default:
	}
	assert.NoError(t, f.Err())

	close(remote.release)
	require.NoError(t, wait(t, f))
	assert.Len(t, remote.Calls(), 1)
}

func TestSubmit_BothAbsentStillRoundTrips(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, wait(t, env.dispatcher.Submit(room, nil, nil)))

	calls := env.remote.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Markers.IsEmpty())

	_, err := env.store.Marker(ctx, room)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = env.store.Receipt(ctx, room, localUser)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSubmit_CopiesCallerValues(t *testing.T) {
	env := newTestEnv(t)
	id := "$E1"

	f := env.dispatcher.Submit(room, &id, nil)
	id = "$mutated"
	require.NoError(t, wait(t, f))

	marker, err := env.store.Marker(context.Background(), room)
	require.NoError(t, err)
	assert.Equal(t, "$E1", marker.EventID)
}

func TestSubmit_LocalFailureSkipsRemote(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Close())

	err := wait(t, env.dispatcher.Submit(room, strPtr("$E1"), nil))
	require.Error(t, err)
	assert.Empty(t, env.remote.Calls())
}

func TestSubmit_ExecutorClosed(t *testing.T) {
	env := newTestEnv(t)
	executor := taskexec.New(1)
	require.NoError(t, executor.Close(context.Background()))
	env.dispatcher.runner = executor

	err := wait(t, env.dispatcher.Submit(room, nil, strPtr("$E1")))
	assert.True(t, errors.Is(err, taskexec.ErrClosed))
	assert.Empty(t, env.remote.Calls())
}

func TestSubmit_ConcurrentCallsLeaveOneRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.services.ForRoom(room)

	ids := []string{"$E1", "$E2", "$E3", "$E4", "$E5", "$E6", "$E7", "$E8"}
	futures := make([]*Future, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			futures[i] = svc.SetReadMarkers(&id, &id)
		}(i, id)
	}
	wg.Wait()

	for _, f := range futures {
		require.NoError(t, wait(t, f))
	}

	rows, err := env.receipts.ListByRoom(ctx, room)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, ids, rows[0].EventID)

	marker, err := env.store.Marker(ctx, room)
	require.NoError(t, err)
	assert.Contains(t, ids, marker.EventID)
	assert.Len(t, env.remote.Calls(), len(ids))
}

type panickingRemote struct{}

func (panickingRemote) SetReadMarkers(ctx context.Context, roomID string, markers models.ReadMarkersRequest) error {
	panic("boom")
}

func TestSubmit_PanickingTaskResolvesFuture(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.remote = panickingRemote{}

	f := env.dispatcher.Submit(room, strPtr("$E1"), nil)

	completed := make(chan error, 1)
	f.OnComplete(func(err error) { completed <- err })

	err := wait(t, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	select {
	case cbErr := <-completed:
		assert.Equal(t, err, cbErr)
	case <-time.After(5 * time.Second):
		t.Fatal("OnComplete callback never ran")
	}

	marker, err := env.store.Marker(context.Background(), room)
	require.NoError(t, err)
	assert.Equal(t, "$E1", marker.EventID, "local write before the panic stays")
}
