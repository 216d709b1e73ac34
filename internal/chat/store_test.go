package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var conversationCols = []string{"conversation_id", "patient_id", "created_at", "updated_at"}

func TestGetConversationScopedToPatient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM chat_conversations").
		WithArgs("conv-1", int64(7)).
		WillReturnRows(pgxmock.NewRows(conversationCols).AddRow("conv-1", int64(7), now, now))

	store := NewStore(mock)
	conversation, err := store.GetConversation(context.Background(), 7, "conv-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conversation.ConversationID != "conv-1" || conversation.PatientID != 7 {
		t.Errorf("conversation = %+v", conversation)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM chat_conversations").
		WithArgs("conv-x", int64(7)).
		WillReturnRows(pgxmock.NewRows(conversationCols))

	store := NewStore(mock)
	if _, err := store.GetConversation(context.Background(), 7, "conv-x"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestCreateConversationGeneratesUUID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO chat_conversations").
		WithArgs(pgxmock.AnyArg(), int64(7)).
		WillReturnRows(pgxmock.NewRows(conversationCols).AddRow("conv-new", int64(7), now, now))

	store := NewStore(mock)
	conversation, err := store.CreateConversation(context.Background(), 7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conversation.ConversationID != "conv-new" {
		t.Errorf("conversation = %+v", conversation)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHistoryOrdering(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"message_id", "conversation_id", "role", "content", "created_at"}).
		AddRow("m1", "conv-1", "user", "hi", now.Add(-time.Minute)).
		AddRow("m2", "conv-1", "assistant", "hello, how can I help?", now)
	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WithArgs("conv-1").
		WillReturnRows(rows)

	store := NewStore(mock)
	history, err := store.History(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("history = %+v", history)
	}
}

func TestAppendTurnStoresBothMessages(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(pgxmock.AnyArg(), "conv-1", "user", "hi").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(pgxmock.AnyArg(), "conv-1", "assistant", "hello!").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE chat_conversations").
		WithArgs(pgxmock.AnyArg(), "conv-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := NewStore(mock)
	assistantID, err := store.AppendTurn(context.Background(), "conv-1", "hi", "hello!")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if assistantID == "" {
		t.Error("assistant message id empty")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
