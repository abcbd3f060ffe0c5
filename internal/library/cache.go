package library

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Cache is the ephemeral SQLite full-text index over the library. It
// is derived from the sidecars and can always be rebuilt from them.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the query cache for a library root.
func OpenCache(root string) (*Cache, error) {
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", DBPath(root))
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			key,
			bibtex,
			text
		);

		-- Fingerprint of the sidecar set the index was built from.
		CREATE TABLE IF NOT EXISTS cache_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			fingerprint TEXT NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the index and repopulates it from the library. It
// returns the number of entries indexed.
func (c *Cache) Rebuild(lib *Library) (int, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM docs_fts"); err != nil {
		return 0, fmt.Errorf("clearing index: %w", err)
	}

	count := 0
	for _, e := range lib.All() {
		_, err := tx.Exec(
			"INSERT INTO docs_fts (key, bibtex, text) VALUES (?, ?, ?)",
			e.Key, e.BibTeX, e.Text,
		)
		if err != nil {
			return 0, fmt.Errorf("indexing %s: %w", e.Key, err)
		}
		count++
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO cache_meta (id, fingerprint) VALUES (1, ?)",
		fingerprint(lib),
	); err != nil {
		return 0, fmt.Errorf("recording fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return count, nil
}

// Fresh reports whether the index still matches the library's sidecar
// set. A stale cache should be rebuilt before querying.
func (c *Cache) Fresh(lib *Library) bool {
	var fp string
	err := c.db.QueryRow("SELECT fingerprint FROM cache_meta WHERE id = 1").Scan(&fp)
	if err != nil {
		return false
	}
	return fp == fingerprint(lib)
}

// Search returns the keys of entries whose indexed text matches every
// keyword. With deep set, the extracted full text participates in the
// match; otherwise only key and BibTeX do.
func (c *Cache) Search(keywords []string, deep bool) ([]string, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		q := prepareFTSQuery(kw)
		if q == "" {
			continue
		}
		if !deep {
			q = "{key bibtex} : " + q
		}
		terms = append(terms, q)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	rows, err := c.db.Query(
		"SELECT key FROM docs_fts WHERE docs_fts MATCH ? ORDER BY key",
		strings.Join(terms, " AND "),
	)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}
	// Quote anything carrying FTS5 syntax characters.
	if strings.ContainsAny(query, "\"*+-:(){}[]^~./") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}
	return query
}

// fingerprint hashes the identifying state of the library's entries.
func fingerprint(lib *Library) string {
	entries := lib.All()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%s\t%s\t%d\t%d", e.Key, e.RelPath, len(e.BibTeX), len(e.Text))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
