package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ui-translator/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS translation_cache (
    hash        TEXT PRIMARY KEY,
    source      TEXT NOT NULL,
    target_lang TEXT NOT NULL,
    translated  TEXT NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectOne = `SELECT translated FROM translation_cache WHERE hash = $1`
	selectAll = `SELECT hash, translated FROM translation_cache WHERE target_lang = $1`
	upsert    = `
INSERT INTO translation_cache (hash, source, target_lang, translated)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`
)

// TranslationCache provides in-memory + PostgreSQL-backed caching for translations.
// A nil pool keeps the cache purely in memory.
type TranslationCache struct {
	pool   *pgxpool.Pool
	memory *gocache.Cache // hash -> translated text
}

// NewTranslationCache creates a new cache, optionally backed by PostgreSQL.
func NewTranslationCache(pool *pgxpool.Pool) *TranslationCache {
	return &TranslationCache{
		pool:   pool,
		memory: gocache.New(gocache.NoExpiration, 0),
	}
}

// Key identifies a source text in a target language.
func Key(sourceText, targetLang string) string {
	return textutil.Hash(strings.ToUpper(targetLang) + "\x00" + sourceText)
}

// Persistent reports whether the cache has a PostgreSQL tier.
func (c *TranslationCache) Persistent() bool {
	return c.pool != nil
}

// EnsureSchema creates the cache table when it does not exist.
func (c *TranslationCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	return nil
}

// Get retrieves a cached translation. Returns empty string and false if not found.
func (c *TranslationCache) Get(ctx context.Context, sourceText, targetLang string) (string, bool) {
	hash := Key(sourceText, targetLang)

	if v, ok := c.memory.Get(hash); ok {
		return v.(string), true
	}
	if c.pool == nil {
		return "", false
	}

	var translated string
	err := c.pool.QueryRow(ctx, selectOne, hash).Scan(&translated)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Debug().Err(err).Str("text", textutil.Truncate(sourceText, 30)).Msg("Cache lookup failed")
		}
		return "", false
	}

	c.memory.Set(hash, translated, gocache.NoExpiration)
	return translated, true
}

// Set stores a translation in both in-memory and PostgreSQL cache.
func (c *TranslationCache) Set(ctx context.Context, sourceText, targetLang, translated string) error {
	hash := Key(sourceText, targetLang)
	c.memory.Set(hash, translated, gocache.NoExpiration)

	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, upsert, hash, sourceText, strings.ToUpper(targetLang), translated); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// SetBatch stores multiple translations for one target language.
func (c *TranslationCache) SetBatch(ctx context.Context, targetLang string, pairs map[string]string) error {
	for source, translated := range pairs {
		if err := c.Set(ctx, source, targetLang, translated); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of translations held in memory.
func (c *TranslationCache) Len() int {
	return c.memory.ItemCount()
}

// Preload loads all cached translations for targetLang into memory.
func (c *TranslationCache) Preload(ctx context.Context, targetLang string) error {
	if c.pool == nil {
		return nil
	}

	rows, err := c.pool.Query(ctx, selectAll, strings.ToUpper(targetLang))
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("scan cache row: %w", err)
		}
		c.memory.Set(hash, translated, gocache.NoExpiration)
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	log.Info().Int("count", count).Str("lang", targetLang).Msg("Preloaded translation cache")
	return nil
}
