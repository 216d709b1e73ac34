package routing

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bdang10/Carely-AI/internal/observability/metrics"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// DefaultThreshold gates the LLM verification phase: lexical results at or
// above it are returned without any external call.
const DefaultThreshold = 0.6

// LexicalClassifier votes with stemmed keyword triggers. It is pure in-memory
// computation and never blocks.
type LexicalClassifier struct {
	table *KeywordTable
}

// NewLexicalClassifier builds the fast first-pass classifier.
func NewLexicalClassifier(table *KeywordTable) *LexicalClassifier {
	if table == nil {
		table = DefaultKeywordTable()
	}
	return &LexicalClassifier{table: table}
}

// Classify counts trigger hits for both intents and derives a confidence from
// the vote margin. History is ignored: lexical voting only sees the message.
func (c *LexicalClassifier) Classify(_ context.Context, message string, _ []Turn) (Result, error) {
	if strings.TrimSpace(message) == "" {
		return Result{}, ErrInvalidInput
	}

	stems := normalize(message)
	schedulingHits, qnaHits, evidence := c.table.vote(stems)

	total := schedulingHits + qnaHits
	if total < 1 {
		total = 1
	}
	distance := math.Abs(float64(schedulingHits - qnaHits))
	confidence := 0.5 + 0.5*(distance/float64(total))

	intent := IntentUserDecision
	switch {
	case schedulingHits > qnaHits:
		intent = IntentAppointment
	case qnaHits > schedulingHits:
		intent = IntentQnA
	}

	return Result{
		Intent:         intent,
		Confidence:     confidence,
		Source:         SourceKeyword,
		SchedulingHits: schedulingHits,
		QnAHits:        qnaHits,
		Evidence:       evidence,
	}, nil
}

// Router is the hybrid classifier: lexical voting first, then a single
// confidence-gated LLM verification. It holds no mutable state, so concurrent
// Classify calls need no locking.
type Router struct {
	lexical   *LexicalClassifier
	verifier  Verifier
	threshold float64
	timeout   time.Duration
	logger    *logging.Logger
	metrics   *metrics.RouterMetrics
}

// Option configures a Router.
type Option func(*Router)

// WithThreshold overrides the confidence gate for the verification phase.
func WithThreshold(threshold float64) Option {
	return func(r *Router) {
		if threshold > 0 {
			r.threshold = threshold
		}
	}
}

// WithVerifyTimeout bounds the LLM verification call.
func WithVerifyTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMetrics attaches routing metrics.
func WithMetrics(m *metrics.RouterMetrics) Option {
	return func(r *Router) { r.metrics = m }
}

// NewRouter builds the hybrid router. verifier may be nil, in which case
// low-confidence messages resolve to IntentUserDecision without a network call.
func NewRouter(table *KeywordTable, verifier Verifier, logger *logging.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Router{
		lexical:   NewLexicalClassifier(table),
		verifier:  verifier,
		threshold: DefaultThreshold,
		timeout:   8 * time.Second,
		logger:    logger.Component("routing"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify decides which responder should handle the message. It returns
// ErrInvalidInput for empty messages and otherwise always succeeds: dependency
// failures in the verification phase degrade to IntentUserDecision.
func (r *Router) Classify(ctx context.Context, message string, history []Turn) (Result, error) {
	lexical, err := r.lexical.Classify(ctx, message, history)
	if err != nil {
		return Result{}, err
	}

	if lexical.Confidence >= r.threshold {
		r.metrics.ObserveClassification(string(lexical.Intent), string(SourceKeyword))
		return lexical, nil
	}

	if r.verifier == nil {
		// No LLM configured: the lexical outcome stands, undecided or not.
		r.metrics.ObserveClassification(string(lexical.Intent), string(SourceKeyword))
		return lexical, nil
	}

	verifyCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	verification, err := r.verifier.Verify(verifyCtx, message, history)
	r.metrics.ObserveFallbackLatency(time.Since(start).Seconds())
	if err != nil {
		// Not an error to the caller: degrade to asking the user.
		r.logger.Warn("llm verification failed, deferring to user", "error", err)
		r.metrics.ObserveFallbackFailure()
		result := lexical
		result.Intent = IntentUserDecision
		result.Confidence = 0.5
		result.Source = SourceLLM
		r.metrics.ObserveClassification(string(result.Intent), string(result.Source))
		return result, nil
	}

	result := lexical
	result.Source = SourceLLM
	result.Raw = &verification
	result.Intent = mapVerifiedIntent(verification.Intent)
	result.Confidence = clampConfidence(verification.Confidence)
	r.metrics.ObserveClassification(string(result.Intent), string(result.Source))
	return result, nil
}

func mapVerifiedIntent(label string) Intent {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "scheduling":
		return IntentAppointment
	case "q&a", "qna":
		return IntentQnA
	default:
		return IntentUserDecision
	}
}

func clampConfidence(c float64) float64 {
	switch {
	case c <= 0 || math.IsNaN(c):
		return 0.5
	case c > 1:
		return 1
	default:
		return c
	}
}
