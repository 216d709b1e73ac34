package routing

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bdang10/Carely-AI/pkg/logging"
)

type fakeVerifier struct {
	verification Verification
	err          error
	calls        int
	lastHistory  []Turn
}

func (f *fakeVerifier) Verify(_ context.Context, _ string, history []Turn) (Verification, error) {
	f.calls++
	f.lastHistory = history
	return f.verification, f.err
}

func testLogger() *logging.Logger {
	return logging.New("error")
}

func TestClassifySymptomMessageRoutesToAppointments(t *testing.T) {
	verifier := &fakeVerifier{}
	router := NewRouter(nil, verifier, testLogger())

	result, err := router.Classify(context.Background(), "I have a headache", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Intent != IntentAppointment {
		t.Errorf("intent = %s, want %s", result.Intent, IntentAppointment)
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", result.Confidence)
	}
	if result.Source != SourceKeyword {
		t.Errorf("source = %s, want keyword", result.Source)
	}
	if verifier.calls != 0 {
		t.Errorf("verifier called %d times on a confident lexical result", verifier.calls)
	}
}

func TestClassifyMedicationQuestionRoutesToQnA(t *testing.T) {
	verifier := &fakeVerifier{}
	router := NewRouter(nil, verifier, testLogger())

	result, err := router.Classify(context.Background(), "Can I take antibiotics with alcohol?", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Intent != IntentQnA {
		t.Errorf("intent = %s, want %s", result.Intent, IntentQnA)
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", result.Confidence)
	}
	if result.Source != SourceKeyword {
		t.Errorf("source = %s, want keyword", result.Source)
	}
	if verifier.calls != 0 {
		t.Errorf("verifier called %d times, want 0", verifier.calls)
	}
}

func TestClassifyZeroEvidenceInvokesVerifier(t *testing.T) {
	verifier := &fakeVerifier{verification: Verification{Intent: "q&a", Confidence: 0.9, Rationale: "greeting treated as general"}}
	router := NewRouter(nil, verifier, testLogger())

	result, err := router.Classify(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if verifier.calls != 1 {
		t.Fatalf("verifier calls = %d, want 1", verifier.calls)
	}
	if result.Intent != IntentQnA {
		t.Errorf("intent = %s, want %s", result.Intent, IntentQnA)
	}
	if result.Source != SourceLLM {
		t.Errorf("source = %s, want llm", result.Source)
	}
	if result.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.Confidence)
	}
	if result.Raw == nil || result.Raw.Intent != "q&a" {
		t.Errorf("raw verification payload missing: %+v", result.Raw)
	}
}

func TestClassifyVerifierFailureDegradesToUserDecision(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("timeout awaiting response")}
	router := NewRouter(nil, verifier, testLogger())

	result, err := router.Classify(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("classify must not fail on verifier errors, got %v", err)
	}
	if result.Intent != IntentUserDecision {
		t.Errorf("intent = %s, want %s", result.Intent, IntentUserDecision)
	}
	if result.Source != SourceLLM {
		t.Errorf("source = %s, want llm (call was attempted)", result.Source)
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", result.Confidence)
	}
}

func TestClassifyEmptyMessage(t *testing.T) {
	verifier := &fakeVerifier{}
	router := NewRouter(nil, verifier, testLogger())

	for _, message := range []string{"", "   ", "\n\t"} {
		if _, err := router.Classify(context.Background(), message, nil); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("message %q: err = %v, want ErrInvalidInput", message, err)
		}
	}
	if verifier.calls != 0 {
		t.Errorf("verifier called %d times for invalid input", verifier.calls)
	}
}

func TestClassifyNoVerifierZeroEvidence(t *testing.T) {
	router := NewRouter(nil, nil, testLogger())

	result, err := router.Classify(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Intent != IntentUserDecision {
		t.Errorf("intent = %s, want %s", result.Intent, IntentUserDecision)
	}
	if result.Source != SourceKeyword {
		t.Errorf("source = %s, want keyword (no call attempted)", result.Source)
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", result.Confidence)
	}
}

func TestClassifyTieWithEvidenceIsNeutral(t *testing.T) {
	table, err := NewKeywordTable(map[string][]string{
		"scheduling": {"book"},
		"qna":        {"refill"},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	lexical := NewLexicalClassifier(table)

	result, err := lexical.Classify(context.Background(), "book a refill", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.SchedulingHits != 1 || result.QnAHits != 1 {
		t.Fatalf("hits = (%d, %d), want (1, 1)", result.SchedulingHits, result.QnAHits)
	}
	if result.Intent != IntentUserDecision {
		t.Errorf("intent = %s, want %s", result.Intent, IntentUserDecision)
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %v, want exactly 0.5", result.Confidence)
	}
}

func TestLexicalConfidenceGrowsWithMargin(t *testing.T) {
	table, err := NewKeywordTable(map[string][]string{
		"scheduling": {"alpha", "beta", "gamma"},
		"qna":        {"delta"},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	lexical := NewLexicalClassifier(table)

	cases := []struct {
		message    string
		confidence float64
		intent     Intent
	}{
		{"alpha delta", 0.5, IntentUserDecision},       // 1 vs 1
		{"alpha beta delta", 0.5 + 0.5/3, IntentAppointment}, // 2 vs 1
		{"alpha beta", 1.0, IntentAppointment},         // 2 vs 0
		{"alpha beta gamma delta", 0.75, IntentAppointment},  // 3 vs 1
	}

	for _, tc := range cases {
		result, err := lexical.Classify(context.Background(), tc.message, nil)
		if err != nil {
			t.Fatalf("classify %q: %v", tc.message, err)
		}
		if diff := result.Confidence - tc.confidence; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%q: confidence = %v, want %v", tc.message, result.Confidence, tc.confidence)
		}
		if result.Intent != tc.intent {
			t.Errorf("%q: intent = %s, want %s", tc.message, result.Intent, tc.intent)
		}
	}
}

func TestClassifyIdempotentWithDeterministicVerifier(t *testing.T) {
	verifier := &fakeVerifier{verification: Verification{Intent: "scheduling", Confidence: 0.8}}
	router := NewRouter(nil, verifier, testLogger())

	first, err := router.Classify(context.Background(), "hi there", nil)
	if err != nil {
		t.Fatalf("first classify: %v", err)
	}
	second, err := router.Classify(context.Background(), "hi there", nil)
	if err != nil {
		t.Fatalf("second classify: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestClassifyPassesHistoryToVerifierOnly(t *testing.T) {
	verifier := &fakeVerifier{verification: Verification{Intent: "q&a", Confidence: 0.7}}
	router := NewRouter(nil, verifier, testLogger())
	history := []Turn{{Role: "user", Text: "hi"}, {Role: "assistant", Text: "hello, how can I help?"}}

	confident, err := router.Classify(context.Background(), "cancel my appointment", history)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if confident.Source != SourceKeyword || verifier.calls != 0 {
		t.Fatalf("confident path must skip the verifier")
	}

	if _, err := router.Classify(context.Background(), "hmm", history); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if verifier.calls != 1 {
		t.Fatalf("verifier calls = %d, want 1", verifier.calls)
	}
	if !reflect.DeepEqual(verifier.lastHistory, history) {
		t.Errorf("history not forwarded: %+v", verifier.lastHistory)
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	table, err := NewKeywordTable(map[string][]string{
		"scheduling": {"alpha", "beta"},
		"qna":        {"delta"},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	verifier := &fakeVerifier{verification: Verification{Intent: "q&a", Confidence: 0.9}}
	// 2 vs 1 yields confidence ~0.667: below a 0.7 threshold, the verifier runs.
	router := NewRouter(table, verifier, testLogger(), WithThreshold(0.7), WithVerifyTimeout(time.Second))

	result, err := router.Classify(context.Background(), "alpha beta delta", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if verifier.calls != 1 {
		t.Errorf("verifier calls = %d, want 1", verifier.calls)
	}
	if result.Intent != IntentQnA || result.Source != SourceLLM {
		t.Errorf("result = %s/%s, want qna_service/llm", result.Intent, result.Source)
	}
}

func TestClassifyOutOfEnumVerifierLabel(t *testing.T) {
	// Verifier implementations reject out-of-enum labels, but the router also
	// guards: anything unexpected maps to user_decision.
	verifier := &fakeVerifier{verification: Verification{Intent: "billing", Confidence: 0.99}}
	router := NewRouter(nil, verifier, testLogger())

	result, err := router.Classify(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Intent != IntentUserDecision {
		t.Errorf("intent = %s, want user_decision", result.Intent)
	}
	if result.Source != SourceLLM {
		t.Errorf("source = %s, want llm", result.Source)
	}
}
