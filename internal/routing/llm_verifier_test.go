package routing

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
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

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestVerifyParsesStrictJSON(t *testing.T) {
	client := &fakeChatClient{response: chatResponse(`{"intent": "scheduling", "confidence": 0.85, "rationale": "asks to book"}`)}
	verifier := NewOpenAIVerifier(client, "", testLogger())

	verification, err := verifier.Verify(context.Background(), "book me in tomorrow", nil)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verification.Intent != "scheduling" {
		t.Errorf("intent = %q, want scheduling", verification.Intent)
	}
	if verification.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", verification.Confidence)
	}
	if verification.Rationale == "" {
		t.Error("rationale dropped")
	}
}

func TestVerifyRequestShape(t *testing.T) {
	client := &fakeChatClient{response: chatResponse(`{"intent": "q&a", "confidence": 0.7, "rationale": "info"}`)}
	verifier := NewOpenAIVerifier(client, "gpt-4o", testLogger())
	history := []Turn{
		{Role: "user", Text: "hi"},
		{Role: "assistant", Text: "hello"},
	}

	if _, err := verifier.Verify(context.Background(), "what are your hours?", history); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(client.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(client.requests))
	}

	req := client.requests[0]
	if req.Model != "gpt-4o" {
		t.Errorf("model = %q", req.Model)
	}
	if req.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", req.Temperature)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("response format = %+v, want json_object", req.ResponseFormat)
	}
	// system prompt + two history turns + the message itself
	if len(req.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("first message role = %q, want system", req.Messages[0].Role)
	}
	if req.Messages[2].Role != openai.ChatMessageRoleAssistant {
		t.Errorf("history assistant role not preserved: %q", req.Messages[2].Role)
	}
	if req.Messages[3].Content != "message: what are your hours?" {
		t.Errorf("final message = %q", req.Messages[3].Content)
	}
}

func TestVerifyExtractsJSONFromProse(t *testing.T) {
	client := &fakeChatClient{response: chatResponse(
		"Sure, here is the classification:\n" +
			`{"intent": "user_decision", "confidence": 0.5, "rationale": "ambiguous"}` +
			"\nLet me know if you need anything else.",
	)}
	verifier := NewOpenAIVerifier(client, "", testLogger())

	verification, err := verifier.Verify(context.Background(), "hm", nil)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verification.Intent != "user_decision" {
		t.Errorf("intent = %q, want user_decision", verification.Intent)
	}
}

func TestVerifyTransportError(t *testing.T) {
	client := &fakeChatClient{err: errors.New("connection refused")}
	verifier := NewOpenAIVerifier(client, "", testLogger())

	if _, err := verifier.Verify(context.Background(), "hello", nil); !errors.Is(err, errDependencyUnavailable) {
		t.Errorf("err = %v, want errDependencyUnavailable", err)
	}
}

func TestVerifyMalformedResponses(t *testing.T) {
	cases := []struct {
		name     string
		response openai.ChatCompletionResponse
	}{
		{"no choices", openai.ChatCompletionResponse{}},
		{"not json", chatResponse("I think this is a scheduling request.")},
		{"truncated json", chatResponse(`{"intent": "scheduling", "confidence":`)},
		{"out of enum intent", chatResponse(`{"intent": "billing", "confidence": 0.9, "rationale": "x"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeChatClient{response: tc.response}
			verifier := NewOpenAIVerifier(client, "", testLogger())
			if _, err := verifier.Verify(context.Background(), "hello", nil); !errors.Is(err, errMalformedResponse) {
				t.Errorf("err = %v, want errMalformedResponse", err)
			}
		})
	}
}

func TestNewOpenAIVerifierNilClientPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil client")
		}
	}()
	NewOpenAIVerifier(nil, "", testLogger())
}
