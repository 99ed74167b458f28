package repository

import (
	"context"

	"github.com/akinalp/readsync/models"
)

// ProfileRepository, kullanıcı profil tablosu işlemleri.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}
