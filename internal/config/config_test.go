package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.RouterThreshold != 0.6 {
		t.Errorf("RouterThreshold = %v, want 0.6", cfg.RouterThreshold)
	}
	if cfg.RouterLLMTimeout != 8*time.Second {
		t.Errorf("RouterLLMTimeout = %v, want 8s", cfg.RouterLLMTimeout)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s, want gpt-4o-mini", cfg.ChatModel)
	}
	if cfg.RAGEnabled {
		t.Error("RAGEnabled should default to false")
	}
	if cfg.RAGTopK != 3 {
		t.Errorf("RAGTopK = %d, want 3", cfg.RAGTopK)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROUTER_CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("ROUTER_LLM_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.carely.ai, https://staging.carely.ai")
	t.Setenv("RAG_ENABLED", "true")

	cfg := Load()

	if cfg.RouterThreshold != 0.75 {
		t.Errorf("RouterThreshold = %v, want 0.75", cfg.RouterThreshold)
	}
	if cfg.RouterLLMTimeout != 5*time.Second {
		t.Errorf("RouterLLMTimeout = %v, want 5s", cfg.RouterLLMTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staging.carely.ai" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.RAGEnabled {
		t.Error("RAGEnabled should be true")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("ROUTER_CONFIDENCE_THRESHOLD", "not-a-number")
	t.Setenv("RAG_TOP_K", "many")

	cfg := Load()

	if cfg.RouterThreshold != 0.6 {
		t.Errorf("RouterThreshold = %v, want default 0.6", cfg.RouterThreshold)
	}
	if cfg.RAGTopK != 3 {
		t.Errorf("RAGTopK = %d, want default 3", cfg.RAGTopK)
	}
}
