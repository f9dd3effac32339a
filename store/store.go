// Package store persists finished games, the high score, adventure levels
// and named session snapshots in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/blockglass/game"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrCorruptSnapshot = errors.New("snapshot digest does not match")
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	session_id   TEXT PRIMARY KEY,
	score        INTEGER NOT NULL,
	lines        INTEGER NOT NULL,
	placements   INTEGER NOT NULL,
	batches      INTEGER NOT NULL,
	rescue_used  INTEGER NOT NULL,
	seed         TEXT NOT NULL DEFAULT '',
	finished_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS games_score_idx ON games(score);
CREATE TABLE IF NOT EXISTS snapshots (
	name        TEXT PRIMARY KEY,
	state       TEXT NOT NULL,
	digest      TEXT NOT NULL,
	saved_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS adventure (
	player      TEXT PRIMARY KEY,
	level       INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers anyway, and an in-memory database only
	// exists on the connection that created it.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("store-opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GameRecord is one finished (or abandoned) game.
type GameRecord struct {
	SessionID    string
	Score        int
	LinesCleared int
	Placements   int
	Batches      int
	RescueUsed   bool
	Seed         string
	FinishedAt   time.Time
}

// RecordFromGame builds a record of the game's current state.
func RecordFromGame(g *game.Game, seed string) GameRecord {
	return GameRecord{
		SessionID:    g.SessionID(),
		Score:        g.Score(),
		LinesCleared: g.LinesCleared(),
		Placements:   g.Placements(),
		Batches:      g.BatchesDealt(),
		RescueUsed:   g.RescueUsed(),
		Seed:         seed,
		FinishedAt:   time.Now(),
	}
}

// RecordGame inserts a game, replacing an earlier record of the same
// session.
func (s *Store) RecordGame(ctx context.Context, r GameRecord) error {
	rescue := 0
	if r.RescueUsed {
		rescue = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO games
		(session_id, score, lines, placements, batches, rescue_used, seed, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Score, r.LinesCleared, r.Placements, r.Batches, rescue,
		r.Seed, r.FinishedAt.Unix())
	return err
}

// HighScore is the best recorded score, or 0 with no games.
func (s *Store) HighScore(ctx context.Context) (int, error) {
	var hs sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(score) FROM games`).Scan(&hs)
	if err != nil {
		return 0, err
	}
	return int(hs.Int64), nil
}

type Totals struct {
	GamesPlayed  int
	LinesCleared int
	BestScore    int
	MeanScore    float64
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	var lines, best sql.NullInt64
	var mean sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(lines), MAX(score), AVG(score) FROM games`).
		Scan(&t.GamesPlayed, &lines, &best, &mean)
	if err != nil {
		return t, err
	}
	t.LinesCleared = int(lines.Int64)
	t.BestScore = int(best.Int64)
	t.MeanScore = mean.Float64
	return t, nil
}

// TopGames returns the n best games, best first.
func (s *Store) TopGames(ctx context.Context, n int) ([]GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, score, lines, placements, batches, rescue_used, seed, finished_at
		FROM games ORDER BY score DESC, finished_at ASC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []GameRecord
	for rows.Next() {
		var r GameRecord
		var rescue int
		var ts int64
		if err := rows.Scan(&r.SessionID, &r.Score, &r.LinesCleared, &r.Placements,
			&r.Batches, &rescue, &r.Seed, &ts); err != nil {
			return nil, err
		}
		r.RescueUsed = rescue != 0
		r.FinishedAt = time.Unix(ts, 0)
		ret = append(ret, r)
	}
	return ret, rows.Err()
}

// AdventureLevel is the level player has reached, or 1 for a new player.
func (s *Store) AdventureLevel(ctx context.Context, player string) (int, error) {
	var level int
	err := s.db.QueryRowContext(ctx,
		`SELECT level FROM adventure WHERE player = ?`, player).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	} else if err != nil {
		return 0, err
	}
	return level, nil
}

// SaveAdventureLevel records that player reached level. A saved level never
// goes down.
func (s *Store) SaveAdventureLevel(ctx context.Context, player string, level int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adventure (player, level, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(player) DO UPDATE SET
			level = MAX(level, excluded.level),
			updated_at = excluded.updated_at`,
		player, level, time.Now().Unix())
	if err == nil {
		log.Debug().Str("player", player).Int("level", level).Msg("adventure-level-saved")
	}
	return err
}

func digest(b []byte) string {
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

// SaveSnapshot stores a session state under name, overwriting.
func (s *Store) SaveSnapshot(ctx context.Context, name string, st game.State) error {
	bts, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (name, state, digest, saved_at)
		VALUES (?, ?, ?, ?)`, name, string(bts), digest(bts), time.Now().Unix())
	return err
}

// LoadSnapshot returns the state saved under name. The stored digest is
// checked before the state is decoded.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (game.State, error) {
	var st game.State
	var data, dg string
	err := s.db.QueryRowContext(ctx,
		`SELECT state, digest FROM snapshots WHERE name = ?`, name).Scan(&data, &dg)
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("snapshot %q: %w", name, ErrNotFound)
	} else if err != nil {
		return st, err
	}
	if digest([]byte(data)) != dg {
		return st, fmt.Errorf("snapshot %q: %w", name, ErrCorruptSnapshot)
	}
	err = json.Unmarshal([]byte(data), &st)
	return st, err
}

// ListSnapshots returns snapshot names, most recent first.
func (s *Store) ListSnapshots(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM snapshots ORDER BY saved_at DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *Store) DeleteSnapshot(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("snapshot %q: %w", name, ErrNotFound)
	}
	return nil
}
