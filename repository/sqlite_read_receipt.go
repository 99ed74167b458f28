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

type sqliteReadReceiptRepo struct {
	db database.TxQuerier
}

// NewSQLiteReadReceiptRepo, constructor: interface döner.
func NewSQLiteReadReceiptRepo(db database.TxQuerier) ReadReceiptRepository {
	return &sqliteReadReceiptRepo{db: db}
}

// Upsert, PRIMARY KEY (room_id, user_id) çakışırsa satırı günceller.
// Timestamp karşılaştırması yapılmaz: last write wins.
func (r *sqliteReadReceiptRepo) Upsert(ctx context.Context, receipt *models.ReadReceipt) error {
	query := `
		INSERT INTO read_receipts (room_id, user_id, event_id, origin_server_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(room_id, user_id)
		DO UPDATE SET event_id = excluded.event_id,
		              origin_server_ts = excluded.origin_server_ts`

	_, err := r.db.ExecContext(ctx, query, receipt.RoomID, receipt.UserID, receipt.EventID, receipt.OriginServerTS)
	if err != nil {
		return fmt.Errorf("failed to upsert read receipt: %w", err)
	}
	return nil
}

func (r *sqliteReadReceiptRepo) Get(ctx context.Context, roomID, userID string) (*models.ReadReceipt, error) {
	receipt := &models.ReadReceipt{}
	err := r.db.QueryRowContext(ctx, `
		SELECT room_id, user_id, event_id, origin_server_ts
		FROM read_receipts WHERE room_id = ? AND user_id = ?`, roomID, userID,
	).Scan(&receipt.RoomID, &receipt.UserID, &receipt.EventID, &receipt.OriginServerTS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get read receipt: %w", err)
	}

	return receipt, nil
}

func (r *sqliteReadReceiptRepo) ListByRoom(ctx context.Context, roomID string) ([]models.ReadReceipt, error) {
	return r.list(ctx, `
		SELECT room_id, user_id, event_id, origin_server_ts
		FROM read_receipts
		WHERE room_id = ?
		ORDER BY user_id`, roomID)
}

func (r *sqliteReadReceiptRepo) ListByEvent(ctx context.Context, roomID, eventID string) ([]models.ReadReceipt, error) {
	return r.list(ctx, `
		SELECT room_id, user_id, event_id, origin_server_ts
		FROM read_receipts
		WHERE room_id = ? AND event_id = ?
		ORDER BY user_id`, roomID, eventID)
}

func (r *sqliteReadReceiptRepo) RoomsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT room_id FROM read_receipts WHERE user_id = ? ORDER BY room_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms for user: %w", err)
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var roomID string
		if err := rows.Scan(&roomID); err != nil {
			return nil, fmt.Errorf("failed to scan room id: %w", err)
		}
		rooms = append(rooms, roomID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room rows: %w", err)
	}

	return rooms, nil
}

// list, ortak receipt sorgusunu çalıştırır. Boş sonuç nil değil boş slice döner
// (JSON'da null yerine [] görünür).
func (r *sqliteReadReceiptRepo) list(ctx context.Context, query string, args ...any) ([]models.ReadReceipt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list read receipts: %w", err)
	}
	defer rows.Close()

	receipts := []models.ReadReceipt{}
	for rows.Next() {
		var rr models.ReadReceipt
		if err := rows.Scan(&rr.RoomID, &rr.UserID, &rr.EventID, &rr.OriginServerTS); err != nil {
			return nil, fmt.Errorf("failed to scan read receipt: %w", err)
		}
		receipts = append(receipts, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating read receipt rows: %w", err)
	}

	return receipts, nil
}
