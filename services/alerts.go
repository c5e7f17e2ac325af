package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/storage"
)

const (
	// DefaultAlertThreshold is the relative price drop that triggers an alert.
	DefaultAlertThreshold = 0.20
	// DefaultAlertCooldown is the minimum gap between alerts for one property.
	DefaultAlertCooldown = 120 * time.Minute

	priceHistoryLimit  = 10
	duplicatePriceSkew = 10 * time.Minute
)

// PropertyID derives a stable tracking id from a listing's URL, falling
// back to its name. Page-volatile ids are useless across scrapes.
func PropertyID(url, name string) string {
	basis := url
	if basis == "" {
		basis = name
	}
	sum := md5.Sum([]byte(basis))
	return hex.EncodeToString(sum[:])[:16]
}

// AlertOptions overrides the system defaults for a single observation.
// Zero values mean "use the default".
type AlertOptions struct {
	Threshold float64
	Cooldown  time.Duration
}

// PriceAlertSystem tracks per-property price history and raises an alert
// when a price drops enough since the previous observation.
type PriceAlertSystem struct {
	threshold float64
	cooldown  time.Duration

	mu         sync.Mutex
	properties map[string]*models.TrackedProperty

	store *storage.Store
	now   func() time.Time
}

// NewPriceAlertSystem builds an alert system with the given defaults (falling
// back to DefaultAlertThreshold / DefaultAlertCooldown) and restores tracked
// properties from the store.
func NewPriceAlertSystem(ctx context.Context, threshold float64, cooldown time.Duration, store *storage.Store) *PriceAlertSystem {
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	s := &PriceAlertSystem{
		threshold:  threshold,
		cooldown:   cooldown,
		properties: make(map[string]*models.TrackedProperty),
		store:      store,
		now:        time.Now,
	}

	if store != nil {
		loaded, err := store.LoadTrackedProperties(ctx)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "PriceAlertSystem",
				"error":     err.Error(),
			}).Warn("Could not load tracked properties, starting empty")
		} else {
			for id, prop := range loaded {
				p := prop
				s.properties[id] = &p
			}
			if len(loaded) > 0 {
				logrus.WithFields(logrus.Fields{
					"component":  "PriceAlertSystem",
					"properties": len(loaded),
				}).Info("Restored tracked properties from store")
			}
		}
	}

	return s
}

// TrackProperty records a price observation and returns a formatted alert
// message when the drop since the previous price crosses the threshold and
// the cooldown has passed. Returns "" when no alert fires. Non-positive
// prices are ignored entirely.
func (s *PriceAlertSystem) TrackProperty(ctx context.Context, propertyID, name, url, source string, price float64, opts *AlertOptions) string {
	if price <= 0 {
		return ""
	}

	threshold := s.threshold
	cooldown := s.cooldown
	if opts != nil {
		if opts.Threshold > 0 {
			threshold = opts.Threshold
		}
		if opts.Cooldown > 0 {
			cooldown = opts.Cooldown
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nowTime := s.now()
	prop, exists := s.properties[propertyID]
	if !exists {
		prop = &models.TrackedProperty{
			Name:           name,
			URL:            url,
			Source:         source,
			AlertThreshold: threshold,
		}
		s.properties[propertyID] = prop
	}

	// Repeated scrapes of the same page within a short window report the
	// same price; do not let them pad the history.
	if n := len(prop.Prices); n > 0 {
		last := prop.Prices[n-1]
		if last.Price == price && nowTime.Sub(last.Date) < duplicatePriceSkew {
			return ""
		}
	}

	var prevPrice float64
	if n := len(prop.Prices); n > 0 {
		prevPrice = prop.Prices[n-1].Price
	}

	prop.Prices = append(prop.Prices, models.PriceObservation{
		Price:  price,
		Date:   nowTime,
		Source: source,
	})
	if len(prop.Prices) > priceHistoryLimit {
		prop.Prices = prop.Prices[len(prop.Prices)-priceHistoryLimit:]
	}

	message := ""
	if prevPrice > 0 && price < prevPrice {
		drop := (prevPrice - price) / prevPrice
		cooled := prop.LastAlert == nil || nowTime.Sub(*prop.LastAlert) >= cooldown
		if drop >= threshold && cooled {
			message = fmt.Sprintf("PRICE DROP: %s is now EUR %.2f on %s (was EUR %.2f, -%.0f%%) %s",
				name, price, source, prevPrice, drop*100, url)
			alertAt := nowTime
			prop.LastAlert = &alertAt
			logrus.WithFields(logrus.Fields{
				"component": "PriceAlertSystem",
				"property":  propertyID,
				"drop_pct":  fmt.Sprintf("%.1f", drop*100),
				"price":     price,
			}).Info("Price drop alert")
		}
	}

	s.persistLocked(ctx, propertyID, prop)
	return message
}

// History returns a copy of the price history for a property.
func (s *PriceAlertSystem) History(propertyID string) []models.PriceObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	prop, ok := s.properties[propertyID]
	if !ok {
		return nil
	}
	out := make([]models.PriceObservation, len(prop.Prices))
	copy(out, prop.Prices)
	return out
}

// TrackedCount returns how many properties are being followed.
func (s *PriceAlertSystem) TrackedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.properties)
}

func (s *PriceAlertSystem) persistLocked(ctx context.Context, propertyID string, prop *models.TrackedProperty) {
	if s.store == nil {
		return
	}
	if err := s.store.UpsertTrackedProperty(ctx, propertyID, *prop); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "PriceAlertSystem",
			"property":  propertyID,
			"error":     err.Error(),
		}).Warn("Could not persist tracked property")
	}
}
