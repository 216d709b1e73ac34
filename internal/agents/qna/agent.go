package qna

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bdang10/Carely-AI/internal/routing"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

const systemPrompt = `You are a knowledgeable and responsible medical assistant for Carely Healthcare.
Provide clear, concise, medically accurate answers.
Include disclaimers when appropriate and recommend consulting healthcare professionals for diagnostic or treatment decisions.
Never provide diagnoses or replace professional medical advice.`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ContextProvider supplies knowledge-base passages for a question. An empty
// string means no relevant context was found and the prompt omits the block.
type ContextProvider interface {
	ContextString(ctx context.Context, question string) string
}

// Agent answers general medical questions, optionally grounded in retrieved
// knowledge-base context.
type Agent struct {
	client      chatClient
	retrieval   ContextProvider
	model       string
	temperature float32
	maxTokens   int
	logger      *logging.Logger
}

// Options tunes the agent. Zero values fall back to sane defaults.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Retrieval   ContextProvider
}

// New builds the Q&A agent.
func New(client chatClient, logger *logging.Logger, opts Options) *Agent {
	if client == nil {
		panic("qna: chat client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1000
	}
	return &Agent{
		client:      client,
		retrieval:   opts.Retrieval,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      logger.Component("agents.qna"),
	}
}

// Answer generates a response to the user's question with the conversation
// history as context.
func (a *Agent) Answer(ctx context.Context, message string, history []routing.Turn) (string, error) {
	system := systemPrompt
	if a.retrieval != nil {
		if kb := a.retrieval.ContextString(ctx, message); kb != "" {
			system += "\n\n" + kb
		}
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("qna: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("qna: chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
