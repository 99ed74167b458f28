package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/readsync/database"
	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
)

type sqliteReadMarkerRepo struct {
	db database.TxQuerier
}

// NewSQLiteReadMarkerRepo, constructor: interface döner.
func NewSQLiteReadMarkerRepo(db database.TxQuerier) ReadMarkerRepository {
	return &sqliteReadMarkerRepo{db: db}
}

// Upsert, PRIMARY KEY (room_id) çakışırsa satırı günceller.
func (r *sqliteReadMarkerRepo) Upsert(ctx context.Context, roomID, eventID string) error {
	query := `
		INSERT INTO read_markers (room_id, event_id, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room_id)
		DO UPDATE SET event_id = excluded.event_id,
		              updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, roomID, eventID); err != nil {
		return fmt.Errorf("failed to upsert read marker: %w", err)
	}
	return nil
}

func (r *sqliteReadMarkerRepo) Get(ctx context.Context, roomID string) (*models.ReadMarker, error) {
	marker := &models.ReadMarker{}
	err := r.db.QueryRowContext(ctx,
		`SELECT room_id, event_id FROM read_markers WHERE room_id = ?`, roomID,
	).Scan(&marker.RoomID, &marker.EventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get read marker: %w", err)
	}

	return marker, nil
}
