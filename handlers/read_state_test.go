package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
)

const roomPath = "/api/rooms/" + room

func TestMarkAllAsRead_SetsMarkerAndReceipt(t *testing.T) {
	env := newHandlerEnv(t)
	rec := env.do(t, http.MethodPost, "/api/sync/rooms/"+room+"/events",
		`{"events":[{"event_id":"$E1","origin_server_ts":100},{"event_id":"$E2","origin_server_ts":200}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, roomPath+"/read_all", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp mutationResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.JobID)

	marker, err := env.store.Marker(context.Background(), room)
	require.NoError(t, err)
	assert.Equal(t, "$E2", marker.EventID)

	receipt, err := env.store.Receipt(context.Background(), room, localUser)
	require.NoError(t, err)
	assert.Equal(t, "$E2", receipt.EventID)

	calls := env.remote.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "$E2", *calls[0].FullyRead)
	assert.Equal(t, "$E2", *calls[0].Read)
}

func TestMarkAllAsRead_EmptyRoomIsNoop(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, roomPath+"/read_all", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp mutationResponse
	decodeData(t, rec, &resp)
	assert.Empty(t, resp.JobID)
	assert.Empty(t, env.remote.Calls())
}

func TestSetReadMarkers_OnlyReceipt(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPut, roomPath+"/read_markers", `{"m.read":"$E5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := env.store.Marker(context.Background(), room)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	calls := env.remote.Calls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].FullyRead)
	assert.Equal(t, "$E5", *calls[0].Read)
}

func TestSetReadMarkers_EmptyBodyStillRoundTrips(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPut, roomPath+"/read_markers", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	calls := env.remote.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].IsEmpty())
}

func TestSetReadMarkers_RejectsInvalidBody(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPut, roomPath+"/read_markers", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errcode":"M_BAD_JSON"`)

	rec = env.do(t, http.MethodPut, roomPath+"/read_markers", `{"m.fully_read":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, env.remote.Calls())
}

func TestSetReadMarkers_RemoteFailureIsBadGatewayWithoutRollback(t *testing.T) {
	env := newHandlerEnv(t)
	env.remote.err = errors.Join(pkg.ErrRemote, errors.New("M_UNKNOWN"))

	rec := env.do(t, http.MethodPut, roomPath+"/read_markers", `{"m.fully_read":"$E4"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	marker, err := env.store.Marker(context.Background(), room)
	require.NoError(t, err)
	assert.Equal(t, "$E4", marker.EventID)
}

func TestSetReadMarkers_Async(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPut, roomPath+"/read_markers?async=1", `{"m.fully_read":"$E4"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp mutationResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "accepted", resp.Status)
	assert.NotEmpty(t, resp.JobID)

	assert.Eventually(t, func() bool { return len(env.remote.Calls()) == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestListReceipts(t *testing.T) {
	env := newHandlerEnv(t)
	rec := env.do(t, http.MethodPost, "/api/sync/rooms/"+room+"/receipts",
		`{"$E3":{"m.read":{"@u1:example.org":{"ts":300},"@u2:example.org":{"ts":310}}},"$E1":{"m.read":{"@u3:example.org":{"ts":100}}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("filtered by event", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, roomPath+"/receipts?event_id=$E3", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var receipts []models.DisplayReceipt
		decodeData(t, rec, &receipts)
		require.Len(t, receipts, 2)
		for _, r := range receipts {
			assert.Equal(t, "$E3", r.EventID)
		}
	})

	t.Run("whole room", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, roomPath+"/receipts", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var receipts []models.DisplayReceipt
		decodeData(t, rec, &receipts)
		assert.Len(t, receipts, 3)
	})

	t.Run("unknown event", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, roomPath+"/receipts?event_id=$nope", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var receipts []models.DisplayReceipt
		decodeData(t, rec, &receipts)
		assert.Empty(t, receipts)
	})
}

func TestListReceipts_StorageFailureReturnsError(t *testing.T) {
	env := newHandlerEnv(t)
	require.NoError(t, env.db.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, roomPath+"/receipts", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, ctx.Err(), "handler waited for the request deadline")
}
