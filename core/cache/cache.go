// Package cache memoizes ImageRescale's decode/resize/re-encode work in
// a small SQLite database keyed by source content hash and target
// parameters, so repeated conversions of the same book (or books that
// share cover art and stock images) skip redundant image processing.
package cache

import (
	"database/sql"
	"fmt"
	"path/filepath"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/sqlite"
)

// Cache is a content-addressed store of rescaled image bytes, backed by
// core/sqlite so it works identically under the pure-Go and CGO drivers.
type Cache struct {
	db *sql.DB
}

// Key identifies one rescale result: the source image's content hash
// plus every parameter that affects its output.
type Key struct {
	SourceHash8 string
	Width       int
	Height      int
	MediaType   string
	Quality     int
}

func (k Key) string() string {
	return fmt.Sprintf("%s-%dx%d-q%d-%s", k.SourceHash8, k.Width, k.Height, k.Quality, k.MediaType)
}

// Open opens (creating if absent) the rescale cache database under
// dir. A blank dir disables caching: Get always misses and Put is a
// no-op, so callers don't need a separate "cache enabled" branch.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		return &Cache{}, nil
	}
	path := filepath.Join(dir, "rescale-cache.db")
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, &apperrors.ResourceError{Resource: "rescale-cache", Message: "open", Err: err}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS rescale_cache (
		key TEXT PRIMARY KEY,
		media_type TEXT NOT NULL,
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, &apperrors.ResourceError{Resource: "rescale-cache", Message: "migrate", Err: err}
	}
	return &Cache{db: db}, nil
}

// Get returns the cached rescale result for key, if present.
func (c *Cache) Get(key Key) (data []byte, mediaType string, ok bool) {
	if c == nil || c.db == nil {
		return nil, "", false
	}
	row := c.db.QueryRow(`SELECT media_type, data FROM rescale_cache WHERE key = ?`, key.string())
	if err := row.Scan(&mediaType, &data); err != nil {
		return nil, "", false
	}
	return data, mediaType, true
}

// Put stores a rescale result, replacing any prior entry under the
// same key — results are a pure function of the key, so last-write and
// first-write are equivalent.
func (c *Cache) Put(key Key, mediaType string, data []byte) error {
	if c == nil || c.db == nil {
		return nil
	}
	_, err := c.db.Exec(`INSERT OR REPLACE INTO rescale_cache (key, media_type, data) VALUES (?, ?, ?)`,
		key.string(), mediaType, data)
	return err
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
