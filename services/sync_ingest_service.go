package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/akinalp/readsync/database"
	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/repository"
)

// SyncIngestService, sync katmanının sunucudan getirdiği verileri yerel
// store'a uygular: diğer katılımcıların receipt'leri, zaman çizelgesi
// olayları ve profil güncellemeleri.
type SyncIngestService interface {
	ApplyReceiptContent(ctx context.Context, roomID string, content json.RawMessage) (int, error)
	AppendEvents(ctx context.Context, roomID string, events []models.Event) (int, error)
	UpsertProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error)
}

type syncIngestService struct {
	db       *sql.DB
	store    ReadStateStore
	resolver IdentityResolver
}

// NewSyncIngestService, constructor.
// db: toplu yazımlar için transaction açmakta kullanılır.
func NewSyncIngestService(
	db *sql.DB,
	store ReadStateStore,
	resolver IdentityResolver,
) SyncIngestService {
	return &syncIngestService{
		db:       db,
		store:    store,
		resolver: resolver,
	}
}

// ApplyReceiptContent, bir m.receipt içeriğindeki tüm m.read kayıtlarını
// tek transaction'da upsert eder ve commit sonrası odanın abonelerini bilgilendirir.
func (s *syncIngestService) ApplyReceiptContent(ctx context.Context, roomID string, content json.RawMessage) (int, error) {
	if strings.TrimSpace(roomID) == "" {
		return 0, fmt.Errorf("%w: room_id is required", pkg.ErrBadRequest)
	}

	parsed, err := models.ParseReceiptContent(content)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	receipts := parsed.Receipts(roomID)
	if len(receipts) == 0 {
		return 0, nil
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewSQLiteReadReceiptRepo(tx)
		for i := range receipts {
			if err := repo.Upsert(ctx, &receipts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.store.NotifyRoom(roomID)
	log.Printf("[sync] applied %d receipts room=%s", len(receipts), roomID)
	return len(receipts), nil
}

// AppendEvents, olayları verilen sırayla olay günlüğüne ekler.
func (s *syncIngestService) AppendEvents(ctx context.Context, roomID string, events []models.Event) (int, error) {
	if strings.TrimSpace(roomID) == "" {
		return 0, fmt.Errorf("%w: room_id is required", pkg.ErrBadRequest)
	}

	for i := range events {
		if err := events[i].Validate(); err != nil {
			return 0, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
		}
		events[i].RoomID = roomID
	}

	var inserted int
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		n, err := repository.NewSQLiteEventRepo(tx).Append(ctx, events)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// UpsertProfile, profili günceller, resolver cache'ini temizler ve kullanıcının
// receipt'i olan her odanın abonelerini bilgilendirir.
func (s *syncIngestService) UpsertProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", pkg.ErrBadRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	profile := &models.Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}

	rooms, err := s.upsertProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.resolver.Invalidate(userID)
	for _, roomID := range rooms {
		s.store.NotifyRoom(roomID)
	}

	return profile, nil
}

func (s *syncIngestService) upsertProfile(ctx context.Context, profile *models.Profile) ([]string, error) {
	var rooms []string
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewSQLiteProfileRepo(tx).Upsert(ctx, profile); err != nil {
			return err
		}
		var err error
		rooms, err = repository.NewSQLiteReadReceiptRepo(tx).RoomsForUser(ctx, profile.UserID)
		return err
	})
	return rooms, err
}
