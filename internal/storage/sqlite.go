package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/codefionn/codeflink/internal/logger"
	"github.com/codefionn/codeflink/internal/session"
)

// timeFormat is RFC3339 with fixed nanosecond width. Trailing zeros are kept
// so that lexicographic order of stored timestamps equals chronological order
// (messages are loaded with ORDER BY timestamp on a TEXT column).
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite-backed persistence port for sessions and their message
// logs. Messages are append-only; session metadata is upserted.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the database at dbPath and migrates the
// schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY NOT NULL,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_activity_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY NOT NULL,
		session_id TEXT NOT NULL,
		author TEXT NOT NULL,
		parts TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions (id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// UpsertSessionMetadata writes the session row, replacing an existing one
func (s *Store) UpsertSessionMetadata(sess *session.Session) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO sessions (id, title, created_at, last_activity_at) VALUES (?, ?, ?, ?)",
		sess.ID.String(),
		sess.Title,
		sess.CreatedAt.Format(timeFormat),
		sess.LastActivityAt().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", sess.ID, err)
	}
	return nil
}

// AppendMessage durably records one message of a session
func (s *Store) AppendMessage(sessionID uuid.UUID, msg *session.Message) error {
	parts, err := session.EncodeParts(msg.Parts)
	if err != nil {
		return fmt.Errorf("failed to encode parts for message %s: %w", msg.ID, err)
	}

	_, err = s.db.Exec(
		"INSERT INTO messages (id, session_id, author, parts, timestamp) VALUES (?, ?, ?, ?, ?)",
		msg.ID.String(),
		sessionID.String(),
		string(msg.Author),
		string(parts),
		msg.Timestamp.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to append message %s: %w", msg.ID, err)
	}
	return nil
}

// LoadAllSessions reconstructs every stored session with its messages in
// timestamp order
func (s *Store) LoadAllSessions() ([]*session.Session, error) {
	rows, err := s.db.Query("SELECT id, title, created_at, last_activity_at FROM sessions ORDER BY last_activity_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	type sessionRow struct {
		id             uuid.UUID
		title          string
		createdAt      time.Time
		lastActivityAt time.Time
	}

	var metas []sessionRow
	for rows.Next() {
		var idStr, title, createdStr, activityStr string
		if err := rows.Scan(&idStr, &title, &createdStr, &activityStr); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			logger.Warn("skipping session with malformed id %q: %v", idStr, err)
			continue
		}
		createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for session %s: %w", idStr, err)
		}
		lastActivityAt, err := time.Parse(time.RFC3339Nano, activityStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_activity_at for session %s: %w", idStr, err)
		}

		metas = append(metas, sessionRow{id: id, title: title, createdAt: createdAt, lastActivityAt: lastActivityAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	sessions := make([]*session.Session, 0, len(metas))
	for _, meta := range metas {
		messages, err := s.loadMessages(meta.id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session.Restore(meta.id, meta.title, meta.createdAt, meta.lastActivityAt, messages))
	}

	logger.Info("loaded %d sessions from %s", len(sessions), s.dbPath)
	return sessions, nil
}

func (s *Store) loadMessages(sessionID uuid.UUID) ([]*session.Message, error) {
	rows, err := s.db.Query(
		// rowid breaks ties between messages stamped in the same instant,
		// preserving insertion order
		"SELECT id, author, parts, timestamp FROM messages WHERE session_id = ? ORDER BY timestamp ASC, rowid ASC",
		sessionID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var messages []*session.Message
	for rows.Next() {
		var idStr, author, partsJSON, timestampStr string
		if err := rows.Scan(&idStr, &author, &partsJSON, &timestampStr); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("malformed message id %q: %w", idStr, err)
		}
		timestamp, err := time.Parse(time.RFC3339Nano, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp for message %s: %w", idStr, err)
		}
		parts, err := session.DecodeParts([]byte(partsJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to decode parts for message %s: %w", idStr, err)
		}

		messages = append(messages, &session.Message{
			ID:        id,
			Author:    session.Author(author),
			Parts:     parts,
			Timestamp: timestamp,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}
