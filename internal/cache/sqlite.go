package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TradeRobot/internal/model"
)

// SQLiteCache persists history windows across restarts.
type SQLiteCache struct {
	db     *sql.DB
	mu     sync.Mutex
	policy Policy
	now    func() time.Time
}

// NewSQLiteCache opens (or creates) the SQLite database and runs migrations.
func NewSQLiteCache(dbPath string, policy Policy) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db, policy: policy, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("sqlite history cache opened")
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history_cache (
			key        TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			bars       INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_expires ON history_cache(expires_at)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key Key) ([]model.Bar, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var payload []byte
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM history_cache WHERE key = ?`, key.String(),
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query history cache: %w", err)
	}
	if c.now().Unix() > expiresAt {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM history_cache WHERE key = ?`, key.String()); err != nil {
			return nil, false, fmt.Errorf("evict expired entry: %w", err)
		}
		return nil, false, nil
	}
	bars, err := decodeBars(payload)
	if err != nil {
		return nil, false, err
	}
	return bars, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key Key, bars []model.Bar) error {
	payload, err := encodeBars(bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	_, err = c.db.ExecContext(ctx, `INSERT INTO history_cache (key, payload, bars, expires_at, updated_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, bars=excluded.bars,
			expires_at=excluded.expires_at, updated_at=excluded.updated_at`,
		key.String(), payload, len(bars), now.Add(c.policy.TTLFor(key, now)).Unix(), now.Unix(),
	)
	return err
}

func (c *SQLiteCache) Invalidate(ctx context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.ExecContext(ctx, `DELETE FROM history_cache WHERE key = ?`, key.String())
	return err
}

func (c *SQLiteCache) Close() error {
	log.Info().Msg("closing sqlite history cache")
	return c.db.Close()
}
