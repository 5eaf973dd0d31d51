package textstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/types"
)

// SQLite persists companies, influencers and their texts
type SQLite struct {
	db *sql.DB
}

var _ interfaces.SentimentTextStore = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and runs migrations
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// pragmas in the DSN apply to every pooled connection. WAL lets analyses
	// read while `insight seed` writes.
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info(ctx, "SQLite text store opened", "path", path)
	return s, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (s *SQLite) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			ticker TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS influencers (
			name            TEXT PRIMARY KEY,
			authority_score REAL
		)`,
		`CREATE TABLE IF NOT EXISTS company_influencers (
			ticker     TEXT NOT NULL REFERENCES companies(ticker) ON DELETE CASCADE,
			influencer TEXT NOT NULL REFERENCES influencers(name) ON DELETE CASCADE,
			position   INTEGER NOT NULL,
			PRIMARY KEY (ticker, influencer)
		)`,
		`CREATE TABLE IF NOT EXISTS texts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			influencer TEXT NOT NULL REFERENCES influencers(name) ON DELETE CASCADE,
			body       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_texts_influencer ON texts(influencer)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// HasCompany reports whether ticker is known
func (s *SQLite) HasCompany(ctx context.Context, ticker string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM companies WHERE ticker = ?`, normalizeTicker(ticker)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query company: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) GetInfluencers(ctx context.Context, ticker string) ([]types.Influencer, error) {
	ok, err := s.HasCompany(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.name, i.authority_score
		FROM company_influencers ci
		JOIN influencers i ON i.name = ci.influencer
		WHERE ci.ticker = ?
		ORDER BY ci.position`, normalizeTicker(ticker))
	if err != nil {
		return nil, fmt.Errorf("query influencers: %w", err)
	}
	defer rows.Close()

	out := []types.Influencer{}
	for rows.Next() {
		var inf types.Influencer
		var authority sql.NullFloat64
		if err := rows.Scan(&inf.Name, &authority); err != nil {
			return nil, fmt.Errorf("scan influencer: %w", err)
		}
		if authority.Valid {
			a := authority.Float64
			inf.Authority = &a
		}
		out = append(out, inf)
	}
	return out, rows.Err()
}

func (s *SQLite) GetTexts(ctx context.Context, influencer string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM texts WHERE influencer = ? ORDER BY id`, influencer)
	if err != nil {
		return nil, fmt.Errorf("query texts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan text: %w", err)
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

// SeedStats counts what Import wrote
type SeedStats struct {
	Companies   int
	Influencers int
	Texts       int
}

// Import upserts every company and influencer in seed in a single transaction.
// A seeded company's influencer list and a seeded influencer's texts replace what
// the database held, so importing the same file twice is a no-op. Authority is
// overwritten only when the seed sets it.
func (s *SQLite) Import(ctx context.Context, seed *Seed) (SeedStats, error) {
	var stats SeedStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// an influencer may be listed under several companies; clear its texts once
	cleared := make(map[string]bool)

	for _, c := range seed.Companies {
		ticker := normalizeTicker(c.Ticker)
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO companies(ticker) VALUES (?)`, ticker); err != nil {
			return stats, fmt.Errorf("insert company %s: %w", ticker, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM company_influencers WHERE ticker = ?`, ticker); err != nil {
			return stats, fmt.Errorf("clear influencers of %s: %w", ticker, err)
		}
		stats.Companies++

		for pos, inf := range c.Influencers {
			var authority sql.NullFloat64
			if inf.Authority != nil {
				authority = sql.NullFloat64{Float64: *inf.Authority, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO influencers(name, authority_score) VALUES (?, ?)
				ON CONFLICT(name) DO UPDATE SET authority_score = COALESCE(excluded.authority_score, authority_score)`,
				inf.Name, authority); err != nil {
				return stats, fmt.Errorf("upsert influencer %s: %w", inf.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO company_influencers(ticker, influencer, position) VALUES (?, ?, ?)
				ON CONFLICT(ticker, influencer) DO UPDATE SET position = excluded.position`,
				ticker, inf.Name, pos); err != nil {
				return stats, fmt.Errorf("link %s to %s: %w", inf.Name, ticker, err)
			}
			stats.Influencers++

			if !cleared[inf.Name] {
				if _, err := tx.ExecContext(ctx, `DELETE FROM texts WHERE influencer = ?`, inf.Name); err != nil {
					return stats, fmt.Errorf("clear texts for %s: %w", inf.Name, err)
				}
				cleared[inf.Name] = true
			}
			for _, body := range inf.Texts {
				if _, err := tx.ExecContext(ctx, `INSERT INTO texts(influencer, body) VALUES (?, ?)`, inf.Name, body); err != nil {
					return stats, fmt.Errorf("insert text for %s: %w", inf.Name, err)
				}
				stats.Texts++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}
	return stats, nil
}
