// Package cache stores rendered thumbnails in a SQLite database so unchanged
// documents are not rasterized again. The database lives in
// .seesoft/cache.db by default.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/model"
)

// FileName is the database file name inside the cache directory.
const FileName = "cache.db"

// Cache manages the render cache database.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Entry is one cached render.
type Entry struct {
	Key       string
	Columns   int
	Rows      int
	PNG       []byte
	Runs      []model.Run
	Hits      []geometry.HitLine
	CreatedAt time.Time
}

// storedRun keeps the category as its number: derived categories such as
// comments are not accepted by the document decoder.
type storedRun struct {
	Category int    `json:"c"`
	Text     string `json:"t"`
	Color    string `json:"h,omitempty"`
	Anchor   int    `json:"a,omitempty"`
}

// Key hashes everything a render depends on: the source text, the
// annotation forest, and a description of the render options.
func Key(text string, nodes []model.AnnotationNode, options string) (string, error) {
	data, err := json.Marshal(nodes)
	if err != nil {
		return "", fmt.Errorf("hashing nodes: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(options))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Open opens or creates the cache database in dir, creating dir if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	dbPath := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// Batch workers write concurrently
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Get returns the entry stored under key. The boolean is false on a miss.
func (c *Cache) Get(key string) (*Entry, bool, error) {
	var (
		e         Entry
		runs      string
		hits      string
		createdAt string
	)
	err := c.db.QueryRow(
		"SELECT key, columns, rows, png, runs, hits, created_at FROM renders WHERE key = ?", key,
	).Scan(&e.Key, &e.Columns, &e.Rows, &e.PNG, &runs, &hits, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get render: %w", err)
	}

	var stored []storedRun
	if err := json.Unmarshal([]byte(runs), &stored); err != nil {
		return nil, false, fmt.Errorf("decode cached runs: %w", err)
	}
	e.Runs = make([]model.Run, len(stored))
	for i, r := range stored {
		e.Runs[i] = model.Run{Category: model.Category(r.Category), Text: r.Text, Color: r.Color, Anchor: r.Anchor}
	}
	if err := json.Unmarshal([]byte(hits), &e.Hits); err != nil {
		return nil, false, fmt.Errorf("decode cached hits: %w", err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, true, nil
}

// Put stores e, replacing any entry with the same key. A zero CreatedAt is
// set to the current time.
func (c *Cache) Put(e *Entry) error {
	stored := make([]storedRun, len(e.Runs))
	for i, r := range e.Runs {
		stored[i] = storedRun{Category: int(r.Category), Text: r.Text, Color: r.Color, Anchor: r.Anchor}
	}
	runs, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode runs: %w", err)
	}
	hits, err := json.Marshal(e.Hits)
	if err != nil {
		return fmt.Errorf("encode hits: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err = c.db.Exec(`
		INSERT INTO renders (key, columns, rows, png, runs, hits, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			columns = excluded.columns,
			rows = excluded.rows,
			png = excluded.png,
			runs = excluded.runs,
			hits = excluded.hits,
			created_at = excluded.created_at
	`, e.Key, e.Columns, e.Rows, e.PNG, string(runs), string(hits), e.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put render: %w", err)
	}
	return nil
}

// Prune removes entries created before cutoff and returns how many went.
func (c *Cache) Prune(cutoff time.Time) (int64, error) {
	res, err := c.db.Exec("DELETE FROM renders WHERE created_at < ?", cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all cached renders.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM renders"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
type Stats struct {
	Entries  int64
	PNGBytes int64
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	var stats Stats
	err := c.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(LENGTH(png)), 0) FROM renders").
		Scan(&stats.Entries, &stats.PNGBytes)
	if err != nil {
		return nil, fmt.Errorf("count renders: %w", err)
	}
	return &stats, nil
}
