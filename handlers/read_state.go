package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/services"
)

// RoomReadServices, oda bazlı ReadService üretir (*services.ReadServices).
type RoomReadServices interface {
	ForRoom(roomID string) services.ReadService
}

// ReadStateHandler, yerel UI'nın read marker / read receipt endpoint'lerini yönetir.
type ReadStateHandler struct {
	readServices RoomReadServices
}

// NewReadStateHandler, constructor.
func NewReadStateHandler(readServices RoomReadServices) *ReadStateHandler {
	return &ReadStateHandler{readServices: readServices}
}

// mutationResponse, bir read-state gönderiminin sonucu.
// JobID no-op işlemlerde boştur (hiçbir şey gönderilmedi).
type mutationResponse struct {
	JobID  string `json:"job_id,omitempty"`
	Status string `json:"status"`
}

// MarkAllAsRead godoc
// POST /api/rooms/{roomId}/read_all
// Odanın en son olayını hem fully-read marker hem read receipt olarak işaretler.
func (h *ReadStateHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	future := h.readServices.ForRoom(roomID).MarkAllAsRead(r.Context())
	respondFuture(w, r, future)
}

// SetReadMarkers godoc
// PUT /api/rooms/{roomId}/read_markers
// Body: {"m.fully_read": "$event", "m.read": "$event"}: iki alan da opsiyonel.
func (h *ReadStateHandler) SetReadMarkers(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	var req models.ReadMarkersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	svc := h.readServices.ForRoom(roomID)

	var future *services.Future
	switch {
	case req.FullyRead != nil && req.Read == nil:
		future = svc.SetReadMarker(*req.FullyRead)
	case req.FullyRead == nil && req.Read != nil:
		future = svc.SetReadReceipt(*req.Read)
	default:
		future = svc.SetReadMarkers(req.FullyRead, req.Read)
	}

	respondFuture(w, r, future)
}

// ListReceipts godoc
// GET /api/rooms/{roomId}/receipts?event_id=$event
// event_id verilirse o olayı okumuş kullanıcıları, verilmezse odadaki
// tüm receipt'leri (canlı sorgunun snapshot'ıyla aynı içerik) döner.
func (h *ReadStateHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	svc := h.readServices.ForRoom(roomID)

	if eventID := r.URL.Query().Get("event_id"); eventID != "" {
		receipts, err := svc.QueryReceipts(r.Context(), eventID)
		if err != nil {
			pkg.Error(w, err)
			return
		}
		pkg.JSON(w, http.StatusOK, receipts)
		return
	}

	receipts, err := svc.ListReceipts(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, receipts)
}

// respondFuture, mutasyon sonucunu yazar.
// ?async=1 ise beklemeden 202 döner; aksi halde request context'i
// dolana kadar sonucu bekler.
func respondFuture(w http.ResponseWriter, r *http.Request, future *services.Future) {
	if r.URL.Query().Get("async") == "1" {
		pkg.JSON(w, http.StatusAccepted, mutationResponse{JobID: future.ID(), Status: "accepted"})
		return
	}

	if err := future.Wait(r.Context()); err != nil {
		if errors.Is(err, r.Context().Err()) {
			pkg.ErrorWithMessage(w, http.StatusGatewayTimeout, "read markers still in flight")
			return
		}
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, mutationResponse{JobID: future.ID(), Status: "ok"})
}
