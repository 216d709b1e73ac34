package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bdang10/Carely-AI/pkg/logging"
)

const verifierSystemPrompt = `You are an intent router for healthcare queries.
Classify the user's message into EXACTLY ONE of:
- scheduling
- q&a
(Use "user_decision" if it is perfectly balanced and cannot be decided, or if neither fits clearly.)

Return ONLY a strict JSON object with these lowercase keys:
{
  "intent": "scheduling|q&a|user_decision",
  "confidence": 0.0,
  "rationale": "short reason"
}

Rules:
- Be deterministic and concise. Temperature is 0.
- If the message asks to book/change/cancel an appointment, or reports symptoms or a health complaint: intent = "scheduling".
- If the message asks for general info/policy/medication/hours: intent = "q&a".
- If votes tie or unclear: intent = "user_decision".`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIVerifier asks an OpenAI chat model for a strictly-typed second opinion.
type OpenAIVerifier struct {
	client chatClient
	model  string
	logger *logging.Logger
}

// NewOpenAIVerifier builds the LLM verification strategy.
func NewOpenAIVerifier(client chatClient, model string, logger *logging.Logger) *OpenAIVerifier {
	if client == nil {
		panic("routing: chat client cannot be nil")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIVerifier{client: client, model: model, logger: logger.Component("routing.verifier")}
}

// Verify runs one temperature-0 completion and parses the structured answer.
// Transport failures and non-conforming answers come back as errors for the
// Router to absorb; they are never usable classifications.
func (v *OpenAIVerifier) Verify(ctx context.Context, message string, history []Turn) (Verification, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: verifierSystemPrompt},
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "message: " + message,
	})

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       v.model,
		Messages:    messages,
		Temperature: 0,
		MaxTokens:   200,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Verification{}, fmt.Errorf("%w: %v", errDependencyUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Verification{}, fmt.Errorf("%w: no choices", errMalformedResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Models occasionally wrap the object in extra prose; keep just the JSON.
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var verification Verification
	if err := json.Unmarshal([]byte(content), &verification); err != nil {
		return Verification{}, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}

	switch strings.ToLower(strings.TrimSpace(verification.Intent)) {
	case "scheduling", "q&a", "qna", "user_decision":
		return verification, nil
	default:
		return Verification{}, fmt.Errorf("%w: unexpected intent %q", errMalformedResponse, verification.Intent)
	}
}
