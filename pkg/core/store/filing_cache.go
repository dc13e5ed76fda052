package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FilingTextCache stores flattened filing document text so repeated
// questions about the same filing skip the slow, throttled SEC fetch.
// DB is primary when a pool is configured; otherwise it falls back to
// a local file cache.
type FilingTextCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewFilingTextCache creates a cache instance. If pool is nil and dir
// is empty, a default local directory is used.
func NewFilingTextCache(pool *pgxpool.Pool, dir string) *FilingTextCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "filings")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check FilingTextCache dir: %v\n", err)
		}
	}
	return &FilingTextCache{pool: pool, fileDir: dir}
}

type filingTextEntry struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Get returns the cached text for a filing URL, or "" on a miss.
func (c *FilingTextCache) Get(ctx context.Context, url string) (string, bool) {
	if c.pool != nil {
		query := `SELECT text FROM filing_texts WHERE url = $1 LIMIT 1`
		var text string
		if err := c.pool.QueryRow(ctx, query, url).Scan(&text); err == nil {
			return text, true
		}
		return "", false
	}

	if c.fileDir != "" {
		bytes, err := os.ReadFile(c.urlPath(url))
		if err != nil {
			return "", false
		}
		var entry filingTextEntry
		if err := json.Unmarshal(bytes, &entry); err != nil {
			return "", false
		}
		return entry.Text, true
	}

	return "", false
}

// Save stores flattened filing text keyed by its source URL.
func (c *FilingTextCache) Save(ctx context.Context, url, text string) error {
	if c.pool != nil {
		query := `
			INSERT INTO filing_texts (url, text, fetched_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (url)
			DO UPDATE SET text = EXCLUDED.text, fetched_at = NOW()
		`
		if _, err := c.pool.Exec(ctx, query, url, text); err != nil {
			return fmt.Errorf("failed to save filing text: %w", err)
		}
		return nil
	}

	if c.fileDir != "" {
		entry := filingTextEntry{URL: url, Text: text, FetchedAt: time.Now()}
		bytes, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal filing text: %w", err)
		}
		if err := os.WriteFile(c.urlPath(url), bytes, 0644); err != nil {
			return fmt.Errorf("failed to save to file cache: %w", err)
		}
	}

	return nil
}

func (c *FilingTextCache) urlPath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.fileDir, hex.EncodeToString(sum[:16])+".json")
}
