package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"jomkira/internal/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the transcript archive at path.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			last_user_prompt TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL,
			message_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			image_format TEXT NOT NULL DEFAULT '',
			tool_calls TEXT NOT NULL DEFAULT '',
			banking_state TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			FOREIGN KEY(conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id, id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

// CreateConversation starts a new archived conversation and returns its row
// id and public uuid.
func CreateConversation(db *sql.DB, nowUnix int64) (int64, string, error) {
	conversationID := uuid.NewString()
	res, err := db.Exec(
		"INSERT INTO conversations(conversation_id, created_at, updated_at) VALUES(?, ?, ?)",
		conversationID,
		nowUnix,
		nowUnix,
	)
	if err != nil {
		return 0, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}
	return id, conversationID, nil
}

// InsertMessage archives one transcript message with its frozen snapshots.
// Image bytes are not stored, only the format.
func InsertMessage(db *sql.DB, conversationID int64, msg models.ChatMessage, nowUnix int64) error {
	toolCalls, err := encodeJSON(msg.ToolCalls, len(msg.ToolCalls) > 0)
	if err != nil {
		return fmt.Errorf("encode tool calls: %w", err)
	}
	state, err := encodeJSON(msg.BankingState, msg.BankingState != nil)
	if err != nil {
		return fmt.Errorf("encode banking state: %w", err)
	}
	imageFormat := ""
	if msg.Image != nil {
		imageFormat = msg.Image.Format
	}

	_, err = db.Exec(
		`INSERT INTO messages(conversation_id, message_id, role, content, image_format, tool_calls, banking_state, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		conversationID,
		msg.ID,
		msg.Role,
		msg.Content,
		imageFormat,
		toolCalls,
		state,
		nowUnix,
	)
	return err
}

func UpdateConversationOnUser(db *sql.DB, conversationID int64, nowUnix int64, lastUserPrompt string) error {
	_, err := db.Exec(
		"UPDATE conversations SET updated_at = ?, last_user_prompt = ? WHERE id = ?",
		nowUnix,
		lastUserPrompt,
		conversationID,
	)
	return err
}

// TouchConversation bumps updated_at and records the server session id once
// one is known.
func TouchConversation(db *sql.DB, conversationID int64, nowUnix int64, sessionID string) error {
	_, err := db.Exec(
		`UPDATE conversations SET updated_at = ?,
			session_id = CASE WHEN ? <> '' THEN ? ELSE session_id END
		WHERE id = ?`,
		nowUnix,
		sessionID,
		sessionID,
		conversationID,
	)
	return err
}

// GetRecentConversations returns the total count and one page of
// conversations, newest first.
func GetRecentConversations(db *sql.DB, limit, offset int) (int, []models.ChatListItem, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count); err != nil {
		return 0, nil, err
	}

	rows, err := db.Query(
		`SELECT id, conversation_id, session_id, updated_at, last_user_prompt
		FROM conversations ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	items := make([]models.ChatListItem, 0, limit)
	for rows.Next() {
		var it models.ChatListItem
		if err := rows.Scan(&it.ID, &it.ConversationID, &it.SessionID, &it.UpdatedAtUnix, &it.LastUserPrompt); err != nil {
			return 0, nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	return count, items, nil
}

func GetConversationMessages(db *sql.DB, conversationID int64) ([]models.ChatMessage, error) {
	rows, err := db.Query(
		`SELECT message_id, role, content, image_format, tool_calls, banking_state
		FROM messages WHERE conversation_id = ? ORDER BY id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		var imageFormat, toolCalls, state string
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &imageFormat, &toolCalls, &state); err != nil {
			return nil, err
		}
		if imageFormat != "" {
			m.Image = &models.Image{Format: imageFormat}
		}
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls of %s: %w", m.ID, err)
			}
		}
		if state != "" {
			m.BankingState = &models.BankingState{}
			if err := json.Unmarshal([]byte(state), m.BankingState); err != nil {
				return nil, fmt.Errorf("decode banking state of %s: %w", m.ID, err)
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

func encodeJSON(v any, present bool) (string, error) {
	if !present {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
