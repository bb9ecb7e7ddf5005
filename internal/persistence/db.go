// Package persistence stores player profiles in SQLite so sessions resume
// across runs.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/reelworks/internal/engine"
	"github.com/talgya/reelworks/internal/ledger"
)

// ErrNotFound is returned when no profile matches.
var ErrNotFound = errors.New("persistence: not found")

// Grant kinds in the grants table.
const (
	GrantHat  = "hat"
	GrantFish = "fish"
)

// DB wraps a SQLite connection for profile storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		equipped TEXT NOT NULL DEFAULT '',
		clock REAL NOT NULL,
		ledger_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS grants (
		player_id TEXT NOT NULL REFERENCES players(id),
		kind TEXT NOT NULL,
		item_id TEXT NOT NULL,
		PRIMARY KEY (player_id, kind, item_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL REFERENCES players(id),
		at REAL NOT NULL,
		time TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_player_at ON events(player_id, at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type playerRow struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	Equipped   string  `db:"equipped"`
	Clock      float64 `db:"clock"`
	LedgerJSON string  `db:"ledger_json"`
	UpdatedAt  string  `db:"updated_at"`
}

type eventRow struct {
	ID          string  `db:"id"`
	At          float64 `db:"at"`
	Time        string  `db:"time"`
	Category    string  `db:"category"`
	Description string  `db:"description"`
}

func (r eventRow) event() engine.Event {
	t, _ := time.Parse(time.RFC3339Nano, r.Time)
	return engine.Event{ID: r.ID, At: r.At, Time: t, Category: r.Category, Description: r.Description}
}

// SaveProfile writes a profile: the player row is upserted, grants are
// replaced, and events are appended (already-stored ids are skipped).
func (db *DB) SaveProfile(p engine.Profile) error {
	ledgerJSON, err := json.Marshal(p.Ledger)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO players (id, name, equipped, clock, ledger_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			equipped = excluded.equipped,
			clock = excluded.clock,
			ledger_json = excluded.ledger_json,
			updated_at = excluded.updated_at`,
		p.PlayerID, p.Name, p.Equipped, p.Clock, string(ledgerJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM grants WHERE player_id = ?", p.PlayerID); err != nil {
		return err
	}
	grant, err := tx.Preparex("INSERT INTO grants (player_id, kind, item_id) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer grant.Close()
	for _, id := range p.Hats {
		if _, err := grant.Exec(p.PlayerID, GrantHat, id); err != nil {
			return fmt.Errorf("grant hat %s: %w", id, err)
		}
	}
	for _, id := range p.Fish {
		if _, err := grant.Exec(p.PlayerID, GrantFish, id); err != nil {
			return fmt.Errorf("grant fish %s: %w", id, err)
		}
	}

	for _, e := range p.Events {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO events (id, player_id, at, time, category, description) VALUES (?, ?, ?, ?, ?, ?)",
			e.ID, p.PlayerID, e.At, e.Time.UTC().Format(time.RFC3339Nano), e.Category, e.Description,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// LoadProfile reads the profile of the named player, with up to
// engine.MaxEvents of its most recent events.
func (db *DB) LoadProfile(name string) (engine.Profile, error) {
	var row playerRow
	err := db.conn.Get(&row, "SELECT id, name, equipped, clock, ledger_json, updated_at FROM players WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Profile{}, ErrNotFound
	}
	if err != nil {
		return engine.Profile{}, fmt.Errorf("load player: %w", err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal([]byte(row.LedgerJSON), &snap); err != nil {
		return engine.Profile{}, fmt.Errorf("decode ledger: %w", err)
	}
	p := engine.Profile{
		PlayerID: row.ID,
		Name:     row.Name,
		Equipped: row.Equipped,
		Clock:    row.Clock,
		Ledger:   snap,
	}

	if err := db.conn.Select(&p.Hats, "SELECT item_id FROM grants WHERE player_id = ? AND kind = ? ORDER BY rowid", row.ID, GrantHat); err != nil {
		return engine.Profile{}, fmt.Errorf("load hats: %w", err)
	}
	if err := db.conn.Select(&p.Fish, "SELECT item_id FROM grants WHERE player_id = ? AND kind = ? ORDER BY rowid", row.ID, GrantFish); err != nil {
		return engine.Profile{}, fmt.Errorf("load fish: %w", err)
	}

	events, err := db.RecentEvents(row.ID, engine.MaxEvents)
	if err != nil {
		return engine.Profile{}, err
	}
	p.Events = events
	return p, nil
}

// PlayerSummary is one row of the player list.
type PlayerSummary struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// Players lists stored players, most recently saved first.
func (db *DB) Players() ([]PlayerSummary, error) {
	var out []PlayerSummary
	err := db.conn.Select(&out, "SELECT id, name, updated_at FROM players ORDER BY updated_at DESC")
	return out, err
}

// RecentEvents returns up to limit of a player's most recent events,
// oldest first.
func (db *DB) RecentEvents(playerID string, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT id, at, time, category, description FROM events WHERE player_id = ? ORDER BY at DESC, rowid DESC LIMIT ?",
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[len(rows)-1-i] = r.event()
	}
	return events, nil
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// SaveSession performs a full save of a running session.
func (db *DB) SaveSession(sess *engine.Session) error {
	p := sess.Profile()
	slog.Info("saving session", "player", p.Name, "hats", len(p.Hats), "species", len(p.Fish), "events", len(p.Events))

	if err := db.SaveProfile(p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := db.SaveMeta("last_player", p.Name); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("session saved", "player", p.Name, "clock", p.Clock)
	return nil
}
