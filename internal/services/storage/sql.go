package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/isida-tgbot-go/internal/models"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Rows of the stats table
const (
	statsKeyLearned = "learned_responses"
	statsKeyMain    = "main_stats"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		first_seen TEXT NOT NULL,
		message_count BIGINT NOT NULL DEFAULT 0,
		last_active TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS active_games (
		game_id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	)`,
}

const (
	upsertUser = `INSERT INTO users (user_id, name, username, first_seen, message_count, last_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			username = excluded.username,
			message_count = excluded.message_count,
			last_active = excluded.last_active`
	upsertStats = `INSERT INTO stats (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	insertGame = `INSERT INTO active_games (game_id, data) VALUES (?, ?)`
)

// SQLStore keeps the snapshot in relational tables.
// Every Save runs in one transaction.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// OpenSQLite opens or creates a SQLite database file
func OpenSQLite(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return NewSQLStore(db, "sqlite")
}

// OpenPostgres connects to PostgreSQL using a DSN or URL
func OpenPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return NewSQLStore(db, "postgres")
}

// NewSQLStore wraps an open database and creates the tables.
// dialect is "sqlite" or "postgres".
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return s, nil
}

func (s *SQLStore) Name() string { return s.dialect }

func (s *SQLStore) Close() error { return s.db.Close() }

// rebind turns ? placeholders into $n for postgres
func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save writes the snapshot in a single transaction
func (s *SQLStore) Save(ctx context.Context, snap *models.Snapshot) error {
	learned, err := json.Marshal(snap.Learned)
	if err != nil {
		return fmt.Errorf("encode learned responses: %w", err)
	}
	stats, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.saveUsers(ctx, tx, snap.Users); err != nil {
		return err
	}
	for key, value := range map[string][]byte{statsKeyLearned: learned, statsKeyMain: stats} {
		if _, err := tx.ExecContext(ctx, s.rebind(upsertStats), key, string(value)); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	if err := s.saveGames(ctx, tx, snap.Games); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) saveUsers(ctx context.Context, tx *sql.Tx, users map[int64]models.User) error {
	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertUser))
	if err != nil {
		return fmt.Errorf("prepare user upsert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		u := users[id]
		_, err := stmt.ExecContext(ctx, id, u.Name, u.Username,
			formatTime(u.FirstSeen), u.MessageCount, formatTime(u.LastActive))
		if err != nil {
			return fmt.Errorf("save user %d: %w", id, err)
		}
	}
	return nil
}

func (s *SQLStore) saveGames(ctx context.Context, tx *sql.Tx, sessions map[string]json.RawMessage) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM active_games"); err != nil {
		return fmt.Errorf("clear games: %w", err)
	}
	if len(sessions) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertGame))
	if err != nil {
		return fmt.Errorf("prepare game insert: %w", err)
	}
	defer stmt.Close()

	for id, data := range sessions {
		if _, err := stmt.ExecContext(ctx, id, string(data)); err != nil {
			return fmt.Errorf("save game %s: %w", id, err)
		}
	}
	return nil
}

// Load reads all tables into a snapshot
func (s *SQLStore) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := models.NewSnapshot()

	if err := s.loadUsers(ctx, snap); err != nil {
		return nil, err
	}

	if err := s.loadStats(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadGames(ctx, snap); err != nil {
		return nil, err
	}

	normalize(snap)
	return snap, nil
}

func (s *SQLStore) loadStats(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM stats")
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan stats: %w", err)
		}
		switch key {
		case statsKeyLearned:
			err = json.Unmarshal([]byte(value), &snap.Learned)
		case statsKeyMain:
			err = json.Unmarshal([]byte(value), &snap.Stats)
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return rows.Err()
}

func (s *SQLStore) loadGames(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT game_id, data FROM active_games")
	if err != nil {
		return fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scan game: %w", err)
		}
		snap.Games[id] = json.RawMessage(data)
	}
	return rows.Err()
}

func (s *SQLStore) loadUsers(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, name, username, first_seen, message_count, last_active FROM users")
	if err != nil {
		return fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u                     models.User
			firstSeen, lastActive string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &firstSeen, &u.MessageCount, &lastActive); err != nil {
			return fmt.Errorf("scan user: %w", err)
		}
		if u.FirstSeen, err = parseTime(firstSeen); err != nil {
			return fmt.Errorf("user %d first_seen: %w", u.ID, err)
		}
		if u.LastActive, err = parseTime(lastActive); err != nil {
			return fmt.Errorf("user %d last_active: %w", u.ID, err)
		}
		snap.Users[u.ID] = u
	}
	return rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// normalize fills maps a decoder may have left nil
func normalize(snap *models.Snapshot) {
	if snap.Learned == nil {
		snap.Learned = make(map[string][]string)
	}
	if snap.Users == nil {
		snap.Users = make(map[int64]models.User)
	}
	if snap.Stats.CommandsUsed == nil {
		snap.Stats.CommandsUsed = make(map[string]int64)
	}
	if snap.Games == nil {
		snap.Games = make(map[string]json.RawMessage)
	}
}
