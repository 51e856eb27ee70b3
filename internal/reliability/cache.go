// Package reliability implements the source-reliability service (C5):
// prefetch of domain scores ahead of evidence weighting, a synchronous
// no-I/O lookup for hot paths, and a persistent SQLite cache using a
// write-through pattern.
package reliability

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache persists domain->score lookups across runs.
type Cache struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtUpsert *sql.Stmt
}

// NewCache opens (creating if absent) a SQLite-backed reliability cache.
func NewCache(dbPath string) (*Cache, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("reliability cache path cannot be empty")
	}
	db, err := sql.Open("sqlite", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open reliability cache: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping reliability cache: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS domain_scores (
	domain TEXT PRIMARY KEY,
	score REAL NOT NULL,
	source_type TEXT NOT NULL,
	evidence_count INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create reliability schema: %w", err)
	}

	c := &Cache{db: db}
	if c.stmtGet, err = db.Prepare(`SELECT score, source_type, evidence_count, updated_at FROM domain_scores WHERE domain = ?`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare get: %w", err)
	}
	if c.stmtUpsert, err = db.Prepare(`
INSERT INTO domain_scores (domain, score, source_type, evidence_count, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(domain) DO UPDATE SET score = excluded.score, source_type = excluded.source_type,
	evidence_count = excluded.evidence_count, updated_at = excluded.updated_at`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	return c, nil
}

// Entry is one cached domain assessment.
type Entry struct {
	Score         float64
	SourceType    string
	EvidenceCount int
	UpdatedAt     time.Time
}

// Get returns the cached entry for domain, or ok=false if absent.
func (c *Cache) Get(domain string) (Entry, bool, error) {
	var e Entry
	var updatedUnix int64
	err := c.stmtGet.QueryRow(domain).Scan(&e.Score, &e.SourceType, &e.EvidenceCount, &updatedUnix)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get domain score: %w", err)
	}
	e.UpdatedAt = time.Unix(updatedUnix, 0)
	return e, true, nil
}

// Put writes/updates a cached entry.
func (c *Cache) Put(domain string, e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err := c.stmtUpsert.Exec(domain, e.Score, e.SourceType, e.EvidenceCount, e.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert domain score: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
