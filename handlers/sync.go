package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/services"
)

// SyncHandler, sync katmanının homeserver'dan getirdiği verileri alan endpoint'ler.
type SyncHandler struct {
	ingestService services.SyncIngestService
}

// NewSyncHandler, constructor.
func NewSyncHandler(ingestService services.SyncIngestService) *SyncHandler {
	return &SyncHandler{ingestService: ingestService}
}

// appendEventsRequest, POST /api/sync/rooms/{roomId}/events body'si.
type appendEventsRequest struct {
	Events []models.Event `json:"events"`
}

// ApplyReceipts godoc
// POST /api/sync/rooms/{roomId}/receipts
// Body: m.receipt ephemeral olayının content'i.
func (h *SyncHandler) ApplyReceipts(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	var content json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applied, err := h.ingestService.ApplyReceiptContent(r.Context(), roomID, content)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int{"applied": applied})
}

// AppendEvents godoc
// POST /api/sync/rooms/{roomId}/events
// Olaylar teslim sırasıyla gönderilmelidir.
func (h *SyncHandler) AppendEvents(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	var req appendEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appended, err := h.ingestService.AppendEvents(r.Context(), roomID, req.Events)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int{"appended": appended})
}

// UpsertProfile godoc
// PUT /api/sync/profiles/{userId}
func (h *SyncHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.ingestService.UpsertProfile(r.Context(), userID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, profile)
}
