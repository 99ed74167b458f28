package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/readsync/database"
	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/pkg/notify"
	"github.com/akinalp/readsync/pkg/taskexec"
	"github.com/akinalp/readsync/repository"
	"github.com/akinalp/readsync/services"
)

const (
	localUser = "@me:example.org"
	room      = "!room:example.org"
)

type fakeRemote struct {
	mu    sync.Mutex
	calls []models.ReadMarkersRequest
	err   error
}

func (f *fakeRemote) SetReadMarkers(ctx context.Context, roomID string, markers models.ReadMarkersRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, markers)
	return f.err
}

func (f *fakeRemote) Calls() []models.ReadMarkersRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ReadMarkersRequest(nil), f.calls...)
}

type handlerEnv struct {
	db     *database.DB
	store  services.ReadStateStore
	remote *fakeRemote
	mux    *http.ServeMux
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "readsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	resolver := services.NewIdentityResolver(repository.NewSQLiteProfileRepo(db.Conn), time.Minute)
	store := services.NewReadStateStore(
		repository.NewSQLiteEventRepo(db.Conn),
		repository.NewSQLiteReadMarkerRepo(db.Conn),
		repository.NewSQLiteReadReceiptRepo(db.Conn),
		resolver,
		notify.New(),
	)

	executor := taskexec.New(2)
	t.Cleanup(func() { executor.Close(context.Background()) })

	remote := &fakeRemote{}
	dispatcher := services.NewMutationDispatcher(store, remote, executor, localUser, 5*time.Second)

	readHandler := NewReadStateHandler(services.NewReadServices(store, dispatcher))
	syncHandler := NewSyncHandler(services.NewSyncIngestService(db.Conn, store, resolver))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms/{roomId}/read_all", readHandler.MarkAllAsRead)
	mux.HandleFunc("PUT /api/rooms/{roomId}/read_markers", readHandler.SetReadMarkers)
	mux.HandleFunc("GET /api/rooms/{roomId}/receipts", readHandler.ListReceipts)
	mux.HandleFunc("POST /api/sync/rooms/{roomId}/receipts", syncHandler.ApplyReceipts)
	mux.HandleFunc("POST /api/sync/rooms/{roomId}/events", syncHandler.AppendEvents)
	mux.HandleFunc("PUT /api/sync/profiles/{userId}", syncHandler.UpsertProfile)

	return &handlerEnv{db: db, store: store, remote: remote, mux: mux}
}

func (e *handlerEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// decodeData, pkg.APIResponse zarfındaki data alanını out'a çözer.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) pkg.APIResponse {
	t.Helper()

	var envelope struct {
		pkg.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.APIResponse
}
