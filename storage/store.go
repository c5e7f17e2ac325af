package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/tripdeals/deals-backend/models"
)

// Store is the durable keyed store backing the cache, strategy metrics,
// price-alert histories and favorites. Every write is a per-key atomic
// upsert or an append, so concurrent writers cannot lose each other's
// updates. Services degrade to memory-only operation when the store is nil
// or a write fails.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the embedded database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "Store",
		"path":      path,
	}).Info("Durable store opened")

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS cache_entries (
	cache_key  TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempt_records (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp    TEXT NOT NULL,
	source       TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	success      INTEGER NOT NULL,
	duration     REAL NOT NULL,
	result_count INTEGER NOT NULL,
	error        TEXT
);
CREATE INDEX IF NOT EXISTS idx_attempt_records_source ON attempt_records (source, id DESC);

CREATE TABLE IF NOT EXISTS tracked_properties (
	property_id TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS favorites (
	url      TEXT PRIMARY KEY,
	payload  TEXT NOT NULL,
	added_at TEXT NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// --- cache entries ---

// CacheRow is one persisted cache entry.
type CacheRow struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
}

// UpsertCacheEntry writes a cache entry atomically by key.
func (s *Store) UpsertCacheEntry(ctx context.Context, key string, value []byte, createdAt time.Time) error {
	query := `
		INSERT INTO cache_entries (cache_key, value, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET
			value = EXCLUDED.value,
			created_at = EXCLUDED.created_at
	`
	_, err := s.db.ExecContext(ctx, query, key, value, createdAt.UTC().Format(time.RFC3339Nano))
	return err
}

// LoadCacheEntries returns every persisted cache entry newer than cutoff and
// deletes the rest, so already-expired rows never reach memory.
func (s *Store) LoadCacheEntries(ctx context.Context, cutoff time.Time) ([]CacheRow, error) {
	cutoffStr := cutoff.UTC().Format(time.RFC3339Nano)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE created_at < $1`, cutoffStr); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT cache_key, value, created_at FROM cache_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CacheRow
	for rows.Next() {
		var row CacheRow
		var createdAt string
		if err := rows.Scan(&row.Key, &row.Value, &createdAt); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			continue
		}
		row.CreatedAt = ts
		entries = append(entries, row)
	}
	return entries, rows.Err()
}

// DeleteCacheEntry removes one cache entry.
func (s *Store) DeleteCacheEntry(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = $1`, key)
	return err
}

// ClearCache removes all cache entries.
func (s *Store) ClearCache(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

// --- attempt records ---

// AppendAttempt appends one attempt record to the durable log.
func (s *Store) AppendAttempt(ctx context.Context, rec models.AttemptRecord) error {
	query := `
		INSERT INTO attempt_records (timestamp, source, strategy, success, duration, result_count, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	success := 0
	if rec.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Source, rec.Strategy,
		success, rec.Duration, rec.ResultCount, rec.Error,
	)
	return err
}

// LoadAttempts returns up to limit of the most recent attempt records,
// oldest first.
func (s *Store) LoadAttempts(ctx context.Context, limit int) ([]models.AttemptRecord, error) {
	query := `
		SELECT timestamp, source, strategy, success, duration, result_count, COALESCE(error, '')
		FROM attempt_records
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		var rec models.AttemptRecord
		var ts string
		var success int
		if err := rows.Scan(&ts, &rec.Source, &rec.Strategy, &success, &rec.Duration, &rec.ResultCount, &rec.Error); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			continue
		}
		rec.Timestamp = parsed
		rec.Success = success == 1
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// TrimAttempts deletes everything but the most recent keep records.
func (s *Store) TrimAttempts(ctx context.Context, keep int) error {
	query := `
		DELETE FROM attempt_records
		WHERE id NOT IN (SELECT id FROM attempt_records ORDER BY id DESC LIMIT $1)
	`
	result, err := s.db.ExecContext(ctx, query, keep)
	if err != nil {
		return err
	}
	if deleted, err := result.RowsAffected(); err == nil && deleted > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "Store",
			"deleted":   deleted,
		}).Debug("Trimmed attempt records")
	}
	return nil
}

// --- tracked properties ---

// UpsertTrackedProperty writes one property's alert state atomically.
func (s *Store) UpsertTrackedProperty(ctx context.Context, propertyID string, prop models.TrackedProperty) error {
	payload, err := json.Marshal(prop)
	if err != nil {
		return fmt.Errorf("failed to marshal tracked property: %w", err)
	}
	query := `
		INSERT INTO tracked_properties (property_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (property_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, propertyID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// LoadTrackedProperties returns all persisted alert states keyed by
// property id.
func (s *Store) LoadTrackedProperties(ctx context.Context) (map[string]models.TrackedProperty, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT property_id, payload FROM tracked_properties`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := make(map[string]models.TrackedProperty)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var prop models.TrackedProperty
		if err := json.Unmarshal([]byte(payload), &prop); err != nil {
			logrus.WithFields(logrus.Fields{
				"component":   "Store",
				"property_id": id,
			}).Warn("Skipping unreadable tracked property payload")
			continue
		}
		props[id] = prop
	}
	return props, rows.Err()
}

// --- favorites ---

// UpsertFavorite stores one saved deal keyed by URL.
func (s *Store) UpsertFavorite(ctx context.Context, url string, deal models.ScoredDeal) error {
	payload, err := json.Marshal(deal)
	if err != nil {
		return fmt.Errorf("failed to marshal favorite: %w", err)
	}
	query := `
		INSERT INTO favorites (url, payload, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET payload = EXCLUDED.payload
	`
	_, err = s.db.ExecContext(ctx, query, url, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// LoadFavorites returns all saved deals, oldest first.
func (s *Store) LoadFavorites(ctx context.Context) ([]models.ScoredDeal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM favorites ORDER BY added_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []models.ScoredDeal
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var deal models.ScoredDeal
		if err := json.Unmarshal([]byte(payload), &deal); err != nil {
			continue
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

// DeleteFavorite removes one saved deal by URL. Returns whether a row was
// actually deleted.
func (s *Store) DeleteFavorite(ctx context.Context, url string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE url = $1`, url)
	if err != nil {
		return false, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}
