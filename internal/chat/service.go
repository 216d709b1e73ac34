package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bdang10/Carely-AI/internal/agents/appointment"
	"github.com/bdang10/Carely-AI/internal/observability/metrics"
	"github.com/bdang10/Carely-AI/internal/routing"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

var chatTracer = otel.Tracer("carely.internal.chat")

const generalSystemPrompt = `You are a helpful and empathetic medical assistant for Carely, a healthcare platform.
Your role is to:
- Provide clear, accurate, and empathetic responses to healthcare-related questions
- Help users understand medical information in accessible terms
- Guide users on when to seek professional medical care
- Never provide diagnoses or replace professional medical advice
- Always remind users to consult healthcare professionals for serious medical concerns
- Be supportive, understanding, and maintain patient confidentiality`

// ErrEmptyMessage is returned when the incoming message is blank.
var ErrEmptyMessage = errors.New("chat: message cannot be empty")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ConversationStore is the persistence surface the service needs. Store
// implements it.
type ConversationStore interface {
	GetConversation(ctx context.Context, patientID int64, conversationID string) (*Conversation, error)
	CreateConversation(ctx context.Context, patientID int64) (*Conversation, error)
	History(ctx context.Context, conversationID string) ([]Message, error)
	AppendTurn(ctx context.Context, conversationID, userContent, assistantContent string) (string, error)
}

// AppointmentAgent handles appointment operations.
type AppointmentAgent interface {
	Process(ctx context.Context, patientID int64, message string, history []routing.Turn) (string, *appointment.Action, error)
}

// QnAAgent answers general medical questions.
type QnAAgent interface {
	Answer(ctx context.Context, message string, history []routing.Turn) (string, error)
}

// Request is one incoming chat message. ConversationID empty means start a
// new conversation.
type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Response is the assistant's reply plus routing and action details.
type Response struct {
	Response        string              `json:"response"`
	MessageID       string              `json:"message_id"`
	ConversationID  string              `json:"conversation_id"`
	RoutingDecision *RoutingDecision    `json:"routing_decision,omitempty"`
	AppointmentData *appointment.Action `json:"appointment_data,omitempty"`
}

// RoutingDecision summarizes how the message was dispatched.
type RoutingDecision struct {
	NextService string  `json:"next_service"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
}

// Service orchestrates one chat turn: load history, route, dispatch to the
// right agent, persist both messages.
type Service struct {
	store        ConversationStore
	router       routing.Classifier
	appointments AppointmentAgent
	qna          QnAAgent
	general      chatClient
	model        string
	logger       *logging.Logger
	metrics      *metrics.ChatMetrics
}

// ServiceOptions configures the chat service.
type ServiceOptions struct {
	Model   string
	Metrics *metrics.ChatMetrics
}

// NewService builds the orchestrator. general may be nil only if both agents
// are set; it backs the fallback path for undecided intents.
func NewService(store ConversationStore, router routing.Classifier, appointmentAgent AppointmentAgent, qnaAgent QnAAgent, general chatClient, logger *logging.Logger, opts ServiceOptions) *Service {
	if store == nil {
		panic("chat: conversation store required")
	}
	if router == nil {
		panic("chat: router required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	return &Service{
		store:        store,
		router:       router,
		appointments: appointmentAgent,
		qna:          qnaAgent,
		general:      general,
		model:        opts.Model,
		logger:       logger.Component("chat"),
		metrics:      opts.Metrics,
	}
}

// HandleMessage runs one chat turn for the patient.
func (s *Service) HandleMessage(ctx context.Context, patientID int64, req Request) (*Response, error) {
	ctx, span := chatTracer.Start(ctx, "chat.handle_message")
	defer span.End()
	start := time.Now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	conversation, err := s.resolveConversation(ctx, patientID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("chat.conversation_id", conversation.ConversationID))

	stored, err := s.store.History(ctx, conversation.ConversationID)
	if err != nil {
		return nil, err
	}
	history := make([]routing.Turn, 0, len(stored))
	for _, m := range stored {
		history = append(history, routing.Turn{Role: m.Role, Text: m.Content})
	}

	decision, err := s.router.Classify(ctx, message, history)
	if err != nil {
		return nil, fmt.Errorf("chat: route: %w", err)
	}
	span.SetAttributes(
		attribute.String("chat.intent", string(decision.Intent)),
		attribute.Float64("chat.confidence", decision.Confidence),
	)

	reply, action, err := s.dispatch(ctx, patientID, message, history, decision)
	if err != nil {
		s.metrics.ObserveMessage(string(decision.Intent), "error")
		return nil, err
	}

	assistantMessageID, err := s.store.AppendTurn(ctx, conversation.ConversationID, message, reply)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveMessage(string(decision.Intent), "ok")
	s.metrics.ObserveRequestLatency(time.Since(start).Seconds())
	s.logger.Info("chat turn handled",
		"conversation_id", conversation.ConversationID,
		"intent", string(decision.Intent),
		"confidence", decision.Confidence,
		"source", string(decision.Source),
	)

	return &Response{
		Response:       reply,
		MessageID:      assistantMessageID,
		ConversationID: conversation.ConversationID,
		RoutingDecision: &RoutingDecision{
			NextService: string(decision.Intent),
			Confidence:  decision.Confidence,
			Source:      string(decision.Source),
		},
		AppointmentData: action,
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, patientID int64, conversationID string) (*Conversation, error) {
	if conversationID != "" {
		return s.store.GetConversation(ctx, patientID, conversationID)
	}
	return s.store.CreateConversation(ctx, patientID)
}

func (s *Service) dispatch(ctx context.Context, patientID int64, message string, history []routing.Turn, decision routing.Result) (string, *appointment.Action, error) {
	switch {
	case decision.Intent == routing.IntentAppointment && s.appointments != nil:
		return s.appointments.Process(ctx, patientID, message, history)
	case decision.Intent == routing.IntentQnA && s.qna != nil:
		reply, err := s.qna.Answer(ctx, message, history)
		return reply, nil, err
	default:
		reply, err := s.generalAnswer(ctx, message, history)
		return reply, nil, err
	}
}

func (s *Service) generalAnswer(ctx context.Context, message string, history []routing.Turn) (string, error) {
	if s.general == nil {
		return "", fmt.Errorf("chat: no assistant available for this request")
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: generalSystemPrompt},
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := s.general.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("chat: general completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat: general completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
