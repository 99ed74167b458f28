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

type sqliteProfileRepo struct {
	db database.TxQuerier
}

// NewSQLiteProfileRepo, constructor: interface döner.
func NewSQLiteProfileRepo(db database.TxQuerier) ProfileRepository {
	return &sqliteProfileRepo{db: db}
}

func (r *sqliteProfileRepo) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT user_id, display_name, avatar_url FROM profiles WHERE user_id = ?`

	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&profile.UserID, &profile.DisplayName, &profile.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

func (r *sqliteProfileRepo) Upsert(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, avatar_url, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id)
		DO UPDATE SET display_name = excluded.display_name,
		              avatar_url = excluded.avatar_url,
		              updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, profile.UserID, profile.DisplayName, profile.AvatarURL); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
