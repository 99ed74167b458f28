package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/readsync/database"
	"github.com/akinalp/readsync/pkg/notify"
	"github.com/akinalp/readsync/repository"
	"github.com/akinalp/readsync/services"
)

const (
	localUser = "@me:example.org"
	room      = "!room:example.org"
)

type wsEnv struct {
	store  services.ReadStateStore
	auth   services.AuthService
	hub    *Hub
	server *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "readsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := services.NewReadStateStore(
		repository.NewSQLiteEventRepo(db.Conn),
		repository.NewSQLiteReadMarkerRepo(db.Conn),
		repository.NewSQLiteReadReceiptRepo(db.Conn),
		services.NewIdentityResolver(repository.NewSQLiteProfileRepo(db.Conn), time.Minute),
		notify.New(),
	)
	auth := services.NewAuthService("secret", localUser, time.Hour)

	hub := NewHub(store)
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", NewHandler(hub, auth).HandleConnection)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		hub.Shutdown()
		server.Close()
	})

	return &wsEnv{store: store, auth: auth, hub: hub, server: server}
}

func (e *wsEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	token, err := e.auth.IssueAccessToken()
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ready := readEvent(t, conn)
	require.Equal(t, OpReady, ready.Op)
	return conn
}

type received struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  int64           `json:"seq"`
}

func readEvent(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev received
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func readSnapshot(t *testing.T, conn *websocket.Conn) ReceiptsSnapshotData {
	t.Helper()

	ev := readEvent(t, conn)
	require.Equal(t, OpReceiptsSnapshot, ev.Op)
	var snap ReceiptsSnapshotData
	require.NoError(t, json.Unmarshal(ev.Data, &snap))
	return snap
}

func send(t *testing.T, conn *websocket.Conn, op string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Event{Op: op, Data: data}))
}

func TestHandleConnection_RejectsBadToken(t *testing.T) {
	env := newWSEnv(t)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReceiptsSubscribe_PushesSnapshots(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	send(t, conn, OpReceiptsSubscribe, RoomData{RoomID: room})
	snap := readSnapshot(t, conn)
	assert.Equal(t, room, snap.RoomID)
	assert.Empty(t, snap.Receipts)

	require.NoError(t, env.store.UpsertReceipt(context.Background(), room, "@u1:example.org", "$E3", 300))

	snap = readSnapshot(t, conn)
	require.Len(t, snap.Receipts, 1)
	assert.Equal(t, "$E3", snap.Receipts[0].EventID)
	assert.Equal(t, "@u1:example.org", snap.Receipts[0].User.UserID)
}

func TestReceiptsUnsubscribe_StopsSnapshots(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	send(t, conn, OpReceiptsSubscribe, RoomData{RoomID: room})
	readSnapshot(t, conn)

	send(t, conn, OpReceiptsUnsubscribe, RoomData{RoomID: room})
	// heartbeat_ack, unsubscribe işlendikten sonra sıraya girer.
	send(t, conn, OpHeartbeat, nil)
	require.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)

	require.NoError(t, env.store.UpsertReceipt(context.Background(), room, "@u1:example.org", "$E3", 300))

	send(t, conn, OpHeartbeat, nil)
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op, "no snapshot after unsubscribe")
}

func TestReceiptsSubscribe_MissingRoom(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	send(t, conn, OpReceiptsSubscribe, RoomData{})
	ev := readEvent(t, conn)
	require.Equal(t, OpError, ev.Op)

	var data ErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, OpReceiptsSubscribe, data.Op)
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	send(t, conn, OpReceiptsSubscribe, RoomData{RoomID: room})
	readSnapshot(t, conn)
	assert.Equal(t, 1, env.hub.ClientCount())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}
