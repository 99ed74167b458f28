package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
	"github.com/akinalp/readsync/pkg/cache"
	"github.com/akinalp/readsync/repository"
)

// IdentityResolver, user ID'yi gösterilebilir profile çevirir.
//
// ResolveProfile her zaman geçerli bir profil döner: kullanıcı bilinmiyorsa
// user ID'yi görünen ad olarak kullanan bir yer tutucu üretilir. Böylece
// receipt'i olan her kullanıcı için DisplayReceipt oluşturulabilir.
type IdentityResolver interface {
	ResolveProfile(ctx context.Context, userID string) models.Profile
	Invalidate(userID string)
	// Close, cache temizleme goroutine'ini durdurur.
	Close()
}

type profileResolver struct {
	profileRepo repository.ProfileRepository
	cache       *cache.TTLCache[string, models.Profile]

	// generations: userID → Invalidate sayacı. Lookup sırasında sayaç
	// değiştiyse okunan profil eskidir ve cache'e yazılmaz.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewIdentityResolver, constructor. ttl <= 0 cache'i devre dışı bırakır.
func NewIdentityResolver(profileRepo repository.ProfileRepository, ttl time.Duration) IdentityResolver {
	return &profileResolver{
		profileRepo: profileRepo,
		cache:       cache.New[string, models.Profile](ttl, 5*time.Minute),
		generations: make(map[string]uint64),
	}
}

func (r *profileResolver) ResolveProfile(ctx context.Context, userID string) models.Profile {
	if p, ok := r.cache.Get(userID); ok {
		return p
	}

	gen := r.generation(userID)

	profile, err := r.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pkg.ErrNotFound) {
			// Geçici hata: yer tutucuyu cache'leme, bir sonraki snapshot tekrar dener.
			log.Printf("[identity] failed to resolve profile for %s: %v", userID, err)
			return models.StandInProfile(userID)
		}
		standIn := models.StandInProfile(userID)
		r.store(userID, gen, standIn)
		return standIn
	}

	r.store(userID, gen, *profile)
	return *profile
}

// Invalidate, profil değiştiğinde cache entry'sini siler. Devam eden
// lookup'lar sonuçlarını artık cache'e yazamaz.
func (r *profileResolver) Invalidate(userID string) {
	r.genMu.Lock()
	r.generations[userID]++
	r.cache.Delete(userID)
	r.genMu.Unlock()
}

func (r *profileResolver) generation(userID string) uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.generations[userID]
}

// store, profili sadece lookup başladığından beri Invalidate olmadıysa cache'ler.
func (r *profileResolver) store(userID string, gen uint64, profile models.Profile) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	if r.generations[userID] != gen {
		return
	}
	r.cache.Set(userID, profile)
}

func (r *profileResolver) Close() {
	r.cache.Close()
}
