package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
)

const (
	sqliteConstraintCode = 19
	defaultBusyTimeout   = 5000
)

// Store is the client-local message transcript. The relay itself keeps
// nothing on disk; this file lives next to the user's client so a room's
// history survives restarting the TUI.
type Store struct {
	db *sql.DB
}

// Message is one transcript row.
type Message struct {
	MessageID  string
	Room       string
	SenderID   string
	SenderName string
	Body       string
	Status     string
	SentAt     time.Time
}

// NewStore initializes the SQLite database at the provided path. Call Close
// when done.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "relaychat.db"
	}
	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "file:"), strings.HasPrefix(path, ":memory:"):
		// already in a form sqlite understands
	default:
		path = "file:" + path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout=%d", path, separator, defaultBusyTimeout)
}

// Migrate runs the schema creation statements.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			room TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'sent',
			sent_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room, sent_at);`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveMessage inserts a message. A duplicate messageId is a no-op and reports
// false, so replaying a received broadcast cannot duplicate transcript rows.
func (s *Store) SaveMessage(ctx context.Context, msg Message) (bool, error) {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages(message_id, room, sender_id, sender_name, body, status, sent_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.Room, msg.SenderID, msg.SenderName, msg.Body, msg.Status, msg.SentAt.UTC())
	if err != nil {
		if isConstraintError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

const statusRankExpr = `CASE %s WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'seen' THEN 3 ELSE 0 END`

// UpdateStatus moves a message's status forward. Transitions that would
// regress (delivered arriving after seen) are ignored.
func (s *Store) UpdateStatus(ctx context.Context, messageID, status string) error {
	query := fmt.Sprintf(
		`UPDATE messages SET status = ?1 WHERE message_id = ?2 AND `+
			statusRankExpr+` < `+statusRankExpr,
		"status", "?1")
	_, err := s.db.ExecContext(ctx, query, status, messageID)
	return err
}

// MarkRoomSeen flips every message in the room not sent by the viewer to
// seen, matching how the relay applies a messages_seen notice.
func (s *Store) MarkRoomSeen(ctx context.Context, room, seenBy string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET status = 'seen'
		 WHERE room = ? AND sender_id != ? AND status != 'seen'`,
		room, seenBy)
	return err
}

// History returns the most recent messages of a room, oldest first.
func (s *Store) History(ctx context.Context, room string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, room, sender_id, sender_name, body, status, sent_at
		 FROM (
			SELECT * FROM messages WHERE room = ? ORDER BY sent_at DESC, message_id DESC LIMIT ?
		 ) ORDER BY sent_at ASC, message_id ASC`,
		room, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.MessageID, &msg.Room, &msg.SenderID, &msg.SenderName, &msg.Body, &msg.Status, &msg.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// extended constraint codes keep the base code in the low byte.
		return sqliteErr.Code()&0xff == sqliteConstraintCode
	}
	return false
}
