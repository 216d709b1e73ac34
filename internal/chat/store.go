package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConversationNotFound is returned when a conversation does not belong to
// the patient or does not exist.
var ErrConversationNotFound = errors.New("chat: conversation not found")

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conversation groups the messages of one chat session.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	PatientID      int64     `json:"patient_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message is one stored chat turn.
type Message struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists conversations and messages in Postgres.
type Store struct {
	db Querier
}

// NewStore creates a store backed by a pgx pool or mock.
func NewStore(db Querier) *Store {
	if db == nil {
		panic("chat: querier required")
	}
	return &Store{db: db}
}

// GetConversation loads a conversation scoped to the patient.
func (s *Store) GetConversation(ctx context.Context, patientID int64, conversationID string) (*Conversation, error) {
	query := `
		SELECT conversation_id, patient_id, created_at, updated_at
		FROM chat_conversations
		WHERE conversation_id = $1 AND patient_id = $2`
	var c Conversation
	err := s.db.QueryRow(ctx, query, conversationID, patientID).
		Scan(&c.ConversationID, &c.PatientID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("chat: select conversation: %w", err)
	}
	return &c, nil
}

// CreateConversation starts a new conversation for the patient.
func (s *Store) CreateConversation(ctx context.Context, patientID int64) (*Conversation, error) {
	query := `
		INSERT INTO chat_conversations (conversation_id, patient_id)
		VALUES ($1, $2)
		RETURNING conversation_id, patient_id, created_at, updated_at`
	var c Conversation
	err := s.db.QueryRow(ctx, query, uuid.NewString(), patientID).
		Scan(&c.ConversationID, &c.PatientID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("chat: insert conversation: %w", err)
	}
	return &c, nil
}

// History returns the conversation's messages oldest first.
func (s *Store) History(ctx context.Context, conversationID string) ([]Message, error) {
	query := `
		SELECT message_id, conversation_id, role, content, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`
	rows, err := s.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("chat: select history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.MessageID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("chat: scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chat: history rows: %w", err)
	}
	return out, nil
}

// AppendTurn stores the user message and the assistant reply and bumps the
// conversation timestamp. Returns the assistant message id.
func (s *Store) AppendTurn(ctx context.Context, conversationID, userContent, assistantContent string) (string, error) {
	userID := uuid.NewString()
	assistantID := uuid.NewString()

	insert := `
		INSERT INTO chat_messages (message_id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)`
	if _, err := s.db.Exec(ctx, insert, userID, conversationID, "user", userContent); err != nil {
		return "", fmt.Errorf("chat: insert user message: %w", err)
	}
	if _, err := s.db.Exec(ctx, insert, assistantID, conversationID, "assistant", assistantContent); err != nil {
		return "", fmt.Errorf("chat: insert assistant message: %w", err)
	}
	if _, err := s.db.Exec(ctx,
		`UPDATE chat_conversations SET updated_at = $1 WHERE conversation_id = $2`,
		time.Now().UTC(), conversationID); err != nil {
		return "", fmt.Errorf("chat: touch conversation: %w", err)
	}
	return assistantID, nil
}
