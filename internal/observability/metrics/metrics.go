package metrics

import "github.com/prometheus/client_golang/prometheus"

// RouterMetrics exposes counters/histograms for intent classification.
type RouterMetrics struct {
	classificationsTotal *prometheus.CounterVec
	fallbackLatency      prometheus.Histogram
	fallbackFailures     prometheus.Counter
}

func NewRouterMetrics(reg prometheus.Registerer) *RouterMetrics {
	m := &RouterMetrics{
		classificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carely",
			Subsystem: "routing",
			Name:      "classifications_total",
			Help:      "Total intent classifications by decided intent and source",
		}, []string{"intent", "source"}),
		fallbackLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carely",
			Subsystem: "routing",
			Name:      "llm_fallback_latency_seconds",
			Help:      "Latency of LLM verification calls",
			Buckets:   prometheus.DefBuckets,
		}),
		fallbackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carely",
			Subsystem: "routing",
			Name:      "llm_fallback_failures_total",
			Help:      "LLM verification calls that degraded to user_decision",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.classificationsTotal, m.fallbackLatency, m.fallbackFailures)
	return m
}

func (m *RouterMetrics) ObserveClassification(intent, source string) {
	if m == nil {
		return
	}
	m.classificationsTotal.WithLabelValues(intent, source).Inc()
}

func (m *RouterMetrics) ObserveFallbackLatency(seconds float64) {
	if m == nil {
		return
	}
	m.fallbackLatency.Observe(seconds)
}

func (m *RouterMetrics) ObserveFallbackFailure() {
	if m == nil {
		return
	}
	m.fallbackFailures.Inc()
}

// ChatMetrics exposes counters/histograms for the chat endpoint.
type ChatMetrics struct {
	messagesTotal  *prometheus.CounterVec
	requestLatency prometheus.Histogram
	ragCacheHits   *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carely",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total chat messages by routed service and status",
		}, []string{"service", "status"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carely",
			Subsystem: "chat",
			Name:      "request_latency_seconds",
			Help:      "End-to-end chat request latency",
			Buckets:   prometheus.DefBuckets,
		}),
		ragCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carely",
			Subsystem: "rag",
			Name:      "context_cache_total",
			Help:      "RAG context cache lookups by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.requestLatency, m.ragCacheHits)
	return m
}

func (m *ChatMetrics) ObserveMessage(service, status string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(service, status).Inc()
}

func (m *ChatMetrics) ObserveRequestLatency(seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.Observe(seconds)
}

func (m *ChatMetrics) ObserveRAGCache(outcome string) {
	if m == nil {
		return
	}
	m.ragCacheHits.WithLabelValues(outcome).Inc()
}
