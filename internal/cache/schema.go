package cache

// schemaSQL defines the SQLite schema for the render cache.
// Tables:
//   - renders: one row per rendered (source, annotations, options) triple
const schemaSQL = `
CREATE TABLE IF NOT EXISTS renders (
    key TEXT PRIMARY KEY,
    columns INTEGER NOT NULL,
    rows INTEGER NOT NULL,
    png BLOB NOT NULL,
    runs TEXT NOT NULL,
    hits TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_renders_created_at ON renders(created_at);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
