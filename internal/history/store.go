// Package history persists conversations as append-only turn and action logs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id TEXT NOT NULL,
	role TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_thread ON turns(thread_id, id);

CREATE TABLE IF NOT EXISTS actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	args TEXT NOT NULL DEFAULT '{}',
	summary TEXT NOT NULL DEFAULT '',
	success INTEGER NOT NULL,
	score REAL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_actions_thread ON actions(thread_id, id);
`

// Thread describes one persisted conversation.
type Thread struct {
	ID        string
	Turns     int
	UpdatedAt time.Time
}

// SQLiteStore is the durable chat history.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, threadID string, turn session.Turn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (thread_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		threadID, string(turn.Role), turn.Text, formatTime(turn.At),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendAction(ctx context.Context, threadID string, action session.Action) error {
	args := []byte("{}")
	if len(action.Args) > 0 {
		var err error
		if args, err = json.Marshal(action.Args); err != nil {
			return fmt.Errorf("encode action args: %w", err)
		}
	}

	var score sql.NullFloat64
	if action.Score != nil {
		score = sql.NullFloat64{Float64: *action.Score, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (thread_id, tool, args, summary, success, score, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		threadID, action.Tool.String(), string(args), action.Summary, action.Success, score, formatTime(action.At),
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// LoadTurns returns the turns of threadID in insertion order.
func (s *SQLiteStore) LoadTurns(ctx context.Context, threadID string) ([]session.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, created_at FROM turns WHERE thread_id = ? ORDER BY id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []session.Turn
	for rows.Next() {
		var role, text, at string
		if err := rows.Scan(&role, &text, &at); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, session.Turn{Role: session.Role(role), Text: text, At: parseTime(at)})
	}
	return turns, rows.Err()
}

// LoadActions returns the actions of threadID in insertion order.
func (s *SQLiteStore) LoadActions(ctx context.Context, threadID string) ([]session.Action, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tool, args, summary, success, score, created_at FROM actions WHERE thread_id = ? ORDER BY id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var actions []session.Action
	for rows.Next() {
		var (
			tool, rawArgs, summary, at string
			success                    bool
			score                      sql.NullFloat64
		)
		if err := rows.Scan(&tool, &rawArgs, &summary, &success, &score, &at); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}

		a := session.Action{
			Tool:    tools.ID(tool),
			Summary: summary,
			Success: success,
			At:      parseTime(at),
		}
		if rawArgs != "" && rawArgs != "{}" {
			if err := json.Unmarshal([]byte(rawArgs), &a.Args); err != nil {
				return nil, fmt.Errorf("decode args of %s: %w", tool, err)
			}
		}
		if score.Valid {
			v := score.Float64
			a.Score = &v
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Threads lists persisted conversations, most recently updated first.
func (s *SQLiteStore) Threads(ctx context.Context) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id, COUNT(*), MAX(created_at) FROM turns GROUP BY thread_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var (
			t  Thread
			at string
		)
		if err := rows.Scan(&t.ID, &t.Turns, &at); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.UpdatedAt = parseTime(at)
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
