package qna

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bdang10/Carely-AI/internal/routing"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

type fakeChatClient struct {
	response openai.ChatCompletionResponse
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

type staticContext string

func (s staticContext) ContextString(context.Context, string) string { return string(s) }

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestAnswerIncludesHistory(t *testing.T) {
	client := &fakeChatClient{response: chatResponse("  Drink plenty of water.  ")}
	agent := New(client, logging.New("error"), Options{})
	history := []routing.Turn{
		{Role: "user", Text: "I have a mild cold"},
		{Role: "assistant", Text: "Rest is important. Anything else?"},
	}

	answer, err := agent.Answer(context.Background(), "what else helps?", history)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "Drink plenty of water." {
		t.Errorf("answer = %q", answer)
	}

	req := client.requests[0]
	if len(req.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("first role = %q", req.Messages[0].Role)
	}
	if req.Messages[2].Role != openai.ChatMessageRoleAssistant {
		t.Errorf("assistant turn mapped to %q", req.Messages[2].Role)
	}
	if req.Messages[3].Content != "what else helps?" {
		t.Errorf("last message = %q", req.Messages[3].Content)
	}
	if req.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", req.Model)
	}
}

func TestAnswerInjectsRetrievedContext(t *testing.T) {
	client := &fakeChatClient{response: chatResponse("ok")}
	agent := New(client, logging.New("error"), Options{
		Retrieval: staticContext("Relevant knowledge base entries:\n1. Clinic hours are 9-5."),
	})

	if _, err := agent.Answer(context.Background(), "when are you open?", nil); err != nil {
		t.Fatalf("answer: %v", err)
	}
	system := client.requests[0].Messages[0].Content
	if !strings.Contains(system, "Clinic hours are 9-5.") {
		t.Errorf("system prompt missing retrieved context: %q", system)
	}
}

func TestAnswerOmitsEmptyContext(t *testing.T) {
	client := &fakeChatClient{response: chatResponse("ok")}
	agent := New(client, logging.New("error"), Options{Retrieval: staticContext("")})

	if _, err := agent.Answer(context.Background(), "hi", nil); err != nil {
		t.Fatalf("answer: %v", err)
	}
	system := client.requests[0].Messages[0].Content
	if system != systemPrompt {
		t.Errorf("system prompt changed despite empty context: %q", system)
	}
}

func TestAnswerPropagatesClientError(t *testing.T) {
	client := &fakeChatClient{err: errors.New("rate limited")}
	agent := New(client, logging.New("error"), Options{})

	if _, err := agent.Answer(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnswerNoChoices(t *testing.T) {
	client := &fakeChatClient{}
	agent := New(client, logging.New("error"), Options{})

	if _, err := agent.Answer(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
