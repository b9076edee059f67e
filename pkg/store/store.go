// Package store persists party ratings and settled-match records in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phenomenon0/saltbet-agent/pkg/elo"

	_ "modernc.org/sqlite"
)

// Party is a named contestant and its current rating. The name is the
// identity key: the same name always resolves to the same party,
// case-sensitively.
type Party struct {
	Name   string
	Rating elo.Rating
}

const schema = `
CREATE TABLE IF NOT EXISTS parties (
	name   TEXT PRIMARY KEY,
	rating INTEGER NOT NULL DEFAULT 1000
);
CREATE TABLE IF NOT EXISTS settlements (
	id           TEXT PRIMARY KEY,
	settled_at   INTEGER NOT NULL,
	outcome      TEXT NOT NULL,
	first_party  TEXT NOT NULL REFERENCES parties(name),
	second_party TEXT NOT NULL REFERENCES parties(name)
);
`

// Store is a SQLite-backed rating and settlement store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the store at path and bootstraps the schema.
// Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn += "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// The decision loop is the only writer; a single connection also
	// keeps an in-memory database coherent across calls.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetParty returns the stored party, or a fresh one with the initial
// rating if the name is unknown. Lookup errors degrade to the default
// rather than surfacing: an unknown party and an unreadable one are
// treated the same, as a newcomer.
func (s *Store) GetParty(ctx context.Context, name string) Party {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT name, rating FROM parties WHERE name = ?`, name)

	var party Party
	if err := row.Scan(&party.Name, &party.Rating); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[STORE] lookup %q failed, using initial rating: %v", name, err)
		}
		return Party{Name: name, Rating: elo.InitialRating}
	}
	return party
}

// PutParty upserts a party by name, last write wins.
func (s *Store) PutParty(ctx context.Context, party Party) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO parties (name, rating) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET rating = excluded.rating`,
		party.Name, int(party.Rating))
	if err != nil {
		return fmt.Errorf("put party %q: %w", party.Name, err)
	}
	return nil
}

// PutSettledMatch appends a settlement record. The history is
// advisory: if either party cannot be resolved against known parties,
// the write is logged and skipped, never surfaced, so rating updates
// are never blocked by it.
func (s *Store) PutSettledMatch(ctx context.Context, outcome elo.Outcome, first, second string) {
	for _, name := range []string{first, second} {
		var found string
		err := s.sqlDB.QueryRowContext(ctx,
			`SELECT name FROM parties WHERE name = ?`, name).Scan(&found)
		if err != nil {
			log.Printf("[STORE] skip settlement %s vs %s: resolve %q: %v", first, second, name, err)
			return
		}
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO settlements (id, settled_at, outcome, first_party, second_party)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC().UnixMilli(), outcome.String(), first, second)
	if err != nil {
		log.Printf("[STORE] skip settlement %s vs %s: %v", first, second, err)
	}
}

// TopParties returns up to n parties ordered by rating, best first.
func (s *Store) TopParties(ctx context.Context, n int) ([]Party, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, rating FROM parties ORDER BY rating DESC, name ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query top parties: %w", err)
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.Name, &p.Rating); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

// SettlementCount reports how many matches have been recorded.
func (s *Store) SettlementCount(ctx context.Context) (int, error) {
	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settlements`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count settlements: %w", err)
	}
	return count, nil
}
