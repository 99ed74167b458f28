// Package models, uygulamanın domain modellerini tanımlar.
//
// Olaylar (Event) oda zaman çizelgesinin parçasıdır ve sunucu tarafından
// atanan opak bir ID taşır. Yerel olarak değiştirilmez; sadece sync
// katmanı tarafından eklenir.
package models

import (
	"fmt"
	"strings"
)

// Event, bir odanın zaman çizelgesindeki tek bir olay.
// StreamOrder, sunucudan teslim sırasıdır: "en son olay" bu alana göre belirlenir.
type Event struct {
	ID             string `json:"event_id"`
	RoomID         string `json:"room_id"`
	Sender         string `json:"sender,omitempty"`
	Type           string `json:"type,omitempty"`
	OriginServerTS int64  `json:"origin_server_ts"`
	StreamOrder    int64  `json:"-"`
}

// Validate, sync katmanından gelen olayın eklenebilir olup olmadığını kontrol eder.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("event_id is required")
	}
	return nil
}
