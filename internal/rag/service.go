package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/bdang10/Carely-AI/internal/observability/metrics"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

// Embedder converts a question to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex answers nearest-neighbor queries.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]Match, error)
	Healthy(ctx context.Context) error
}

// Service retrieves knowledge-base passages relevant to a patient question.
// Retrieval is best-effort: any failure yields an empty context rather than an
// error, so answering never depends on the vector store being up.
type Service struct {
	embedder  Embedder
	index     VectorIndex
	cache     *ContextCache
	namespace string
	topK      int
	logger    *logging.Logger
	metrics   *metrics.ChatMetrics
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Namespace string
	TopK      int
	Cache     *ContextCache
	Metrics   *metrics.ChatMetrics
}

// NewService builds the retrieval service.
func NewService(embedder Embedder, index VectorIndex, logger *logging.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Namespace == "" {
		opts.Namespace = "carely"
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &Service{
		embedder:  embedder,
		index:     index,
		cache:     opts.Cache,
		namespace: opts.Namespace,
		topK:      opts.TopK,
		logger:    logger.Component("rag"),
		metrics:   opts.Metrics,
	}
}

// Retrieve returns the top matches for the question, or an empty slice when
// anything in the pipeline fails.
func (s *Service) Retrieve(ctx context.Context, question string) []Match {
	if strings.TrimSpace(question) == "" {
		return nil
	}

	if matches, ok := s.cache.Get(ctx, question); ok {
		s.metrics.ObserveRAGCache("hit")
		return matches
	}
	s.metrics.ObserveRAGCache("miss")

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		s.logger.Warn("embedding failed, answering without context", "error", err)
		return nil
	}

	matches, err := s.index.Query(ctx, vector, s.topK, s.namespace)
	if err != nil {
		s.logger.Warn("vector query failed, answering without context", "error", err)
		return nil
	}

	s.cache.Set(ctx, question, matches)
	return matches
}

// ContextString formats matches into a prompt block. Empty matches produce an
// empty string so callers can skip the context section entirely.
func (s *Service) ContextString(ctx context.Context, question string) string {
	matches := s.Retrieve(ctx, question)
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant knowledge base entries:\n")
	for i, m := range matches {
		text := m.Metadata["text"]
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Healthy reports whether the vector index is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	if s.index == nil {
		return fmt.Errorf("rag: no vector index configured")
	}
	return s.index.Healthy(ctx)
}
