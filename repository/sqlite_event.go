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

type sqliteEventRepo struct {
	db database.TxQuerier
}

// NewSQLiteEventRepo, constructor: interface döner.
func NewSQLiteEventRepo(db database.TxQuerier) EventRepository {
	return &sqliteEventRepo{db: db}
}

// Latest, odanın stream_order'a göre en son olayını döner.
// origin_server_ts'e göre değil: sunucunun teslim sırası esastır.
func (r *sqliteEventRepo) Latest(ctx context.Context, roomID string) (*models.Event, error) {
	query := `
		SELECT stream_order, event_id, room_id, sender, type, origin_server_ts
		FROM events
		WHERE room_id = ?
		ORDER BY stream_order DESC
		LIMIT 1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(
		&event.StreamOrder, &event.ID, &event.RoomID, &event.Sender, &event.Type, &event.OriginServerTS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}

	return event, nil
}

// Append, olayları verilen sırayla ekler ve eklenen yeni olay sayısını döner.
// INSERT OR IGNORE: aynı event_id ikinci kez gelirse ilk teslim sırası korunur.
func (r *sqliteEventRepo) Append(ctx context.Context, events []models.Event) (int, error) {
	query := `
		INSERT OR IGNORE INTO events (event_id, room_id, sender, type, origin_server_ts)
		VALUES (?, ?, ?, ?, ?)`

	inserted := 0
	for _, e := range events {
		res, err := r.db.ExecContext(ctx, query, e.ID, e.RoomID, e.Sender, e.Type, e.OriginServerTS)
		if err != nil {
			return inserted, fmt.Errorf("failed to append event %s: %w", e.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}
