package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/readsync/models"
)

func TestApplyReceipts_BadContent(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sync/rooms/"+room+"/receipts", `["x"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sync/rooms/"+room+"/receipts", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppendEvents_CountsNewEvents(t *testing.T) {
	env := newHandlerEnv(t)
	body := `{"events":[{"event_id":"$E1"},{"event_id":"$E2"}]}`

	rec := env.do(t, http.MethodPost, "/api/sync/rooms/"+room+"/events", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]int
	decodeData(t, rec, &got)
	assert.Equal(t, 2, got["appended"])

	rec = env.do(t, http.MethodPost, "/api/sync/rooms/"+room+"/events", body)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &got)
	assert.Equal(t, 0, got["appended"])
}

func TestUpsertProfile_ReflectedInReceipts(t *testing.T) {
	env := newHandlerEnv(t)
	rec := env.do(t, http.MethodPost, "/api/sync/rooms/"+room+"/receipts", `{"$E1":{"m.read":{"@u1:example.org":{"ts":100}}}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/sync/profiles/@u1:example.org", `{"displayname":"Alice"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile models.Profile
	decodeData(t, rec, &profile)
	assert.Equal(t, "Alice", profile.Name())

	rec = env.do(t, http.MethodGet, roomPath+"/receipts?event_id=$E1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var receipts []models.DisplayReceipt
	decodeData(t, rec, &receipts)
	require.Len(t, receipts, 1)
	assert.Equal(t, "Alice", receipts[0].User.Name())
}
