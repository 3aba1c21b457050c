package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Event is one recorded entry in a voice session's audit timeline:
// a final transcript or a detection batch, keyed by utterance id so the two
// can be attributed to each other when debugging a session.
type Event struct {
	ID          int64
	SessionID   string
	UtteranceID string
	Type        string
	Payload     []byte
	CreatedAt   time.Time
}

// Event types recorded in the audit timeline
const (
	TypeTranscriptFinal = "transcript_final"
	TypeItemsDetected   = "items_detected"
	TypeItemsUnmatched  = "items_unmatched"
	TypeSubmission      = "submission"
)

// Store is a SQLite-backed append-only audit log of voice session events
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	clock  func() time.Time
}

// Open initializes the audit store at the given path, creating the schema
// if needed
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, logger: logger, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS voice_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    utterance_id TEXT,
    event_type TEXT NOT NULL,
    payload BLOB,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_voice_events_session_created ON voice_events(session_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Append records one event for a session
func (s *Store) Append(ctx context.Context, sessionID, utteranceID, eventType string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voice_events (session_id, utterance_id, event_type, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, utteranceID, eventType, payload, s.clock().UTC())
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// SessionEvents returns a session's events in recorded order
func (s *Store) SessionEvents(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, utterance_id, event_type, payload, created_at
		 FROM voice_events WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UtteranceID, &e.Type, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
