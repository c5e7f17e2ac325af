package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/storage"
)

// FavoritesService keeps the user's saved deals. Deals are deduplicated by
// URL, or by name plus location when the deal has no URL.
type FavoritesService struct {
	mu        sync.Mutex
	favorites []models.ScoredDeal
	store     *storage.Store
}

// NewFavoritesService builds the service and restores saved deals from the
// store. A load failure degrades to an empty in-memory list.
func NewFavoritesService(ctx context.Context, store *storage.Store) *FavoritesService {
	s := &FavoritesService{store: store}

	if store != nil {
		loaded, err := store.LoadFavorites(ctx)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "FavoritesService",
				"error":     err.Error(),
			}).Warn("Could not load favorites, starting empty")
		} else {
			s.favorites = loaded
		}
	}

	return s
}

// Add saves a deal unless an equivalent one is already present. Returns
// false for duplicates.
func (s *FavoritesService) Add(ctx context.Context, deal models.ScoredDeal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fav := range s.favorites {
		if deal.URL != "" && fav.URL == deal.URL {
			return false
		}
		if deal.URL == "" && fav.Name == deal.Name && fav.Location == deal.Location {
			return false
		}
	}

	s.favorites = append(s.favorites, deal)
	if s.store != nil {
		if err := s.store.UpsertFavorite(ctx, deal.URL, deal); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "FavoritesService",
				"url":       deal.URL,
				"error":     err.Error(),
			}).Warn("Could not persist favorite")
		}
	}
	return true
}

// Remove deletes a favorite by URL. Returns false when nothing matched.
func (s *FavoritesService) Remove(ctx context.Context, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.favorites[:0]
	removed := false
	for _, fav := range s.favorites {
		if fav.URL == url {
			removed = true
			continue
		}
		kept = append(kept, fav)
	}
	s.favorites = kept

	if removed && s.store != nil {
		if _, err := s.store.DeleteFavorite(ctx, url); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "FavoritesService",
				"url":       url,
				"error":     err.Error(),
			}).Warn("Could not delete favorite from store")
		}
	}
	return removed
}

// All returns a copy of the saved deals.
func (s *FavoritesService) All() []models.ScoredDeal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScoredDeal, len(s.favorites))
	copy(out, s.favorites)
	return out
}
