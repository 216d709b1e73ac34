package routing

import "context"

// Intent is the routed destination for a chat message.
type Intent string

const (
	IntentAppointment  Intent = "appointment_service"
	IntentQnA          Intent = "qna_service"
	IntentUserDecision Intent = "user_decision"
)

// Source records which phase produced the decision.
type Source string

const (
	SourceKeyword Source = "keyword"
	SourceLLM     Source = "llm"
)

// Turn is one prior message of conversation history. History is only used as
// context for the LLM verification phase, never for lexical voting.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Evidence records a trigger phrase that matched the message.
type Evidence struct {
	Intent  Intent   `json:"intent"`
	Trigger string   `json:"trigger"`
	Stems   []string `json:"stems"`
}

// Result is the classification decision returned to the chat layer.
type Result struct {
	Intent         Intent        `json:"intent"`
	Confidence     float64       `json:"confidence"`
	Source         Source        `json:"source"`
	SchedulingHits int           `json:"scheduling_hits"`
	QnAHits        int           `json:"qna_hits"`
	Evidence       []Evidence    `json:"evidence,omitempty"`
	Raw            *Verification `json:"raw,omitempty"`
}

// Verification is the structured answer required from the LLM verifier.
type Verification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Classifier decides the intent for one message.
type Classifier interface {
	Classify(ctx context.Context, message string, history []Turn) (Result, error)
}

// Verifier is the LLM-backed second opinion used when lexical confidence is low.
type Verifier interface {
	Verify(ctx context.Context, message string, history []Turn) (Verification, error)
}
