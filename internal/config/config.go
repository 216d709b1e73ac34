package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	CORSAllowedOrigins []string

	// Auth
	JWTSecret      string
	AccessTokenTTL time.Duration

	// OpenAI
	OpenAIAPIKey     string
	ChatModel        string
	ChatMaxTokens    int
	EmbeddingModel   string
	RouterModel      string
	RouterThreshold  float64
	RouterLLMTimeout time.Duration
	RouterKeywords   string // optional JSON override for the intent keyword table

	// Pinecone RAG
	RAGEnabled        bool
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string
	RAGTopK           int
	RAGCacheTTL       time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: getEnvAsDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		ChatModel:        getEnv("CHAT_MODEL", "gpt-4o-mini"),
		ChatMaxTokens:    getEnvAsInt("CHAT_MAX_TOKENS", 1000),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		RouterModel:      getEnv("ROUTER_MODEL", "gpt-4o-mini"),
		RouterThreshold:  getEnvAsFloat("ROUTER_CONFIDENCE_THRESHOLD", 0.6),
		RouterLLMTimeout: getEnvAsDuration("ROUTER_LLM_TIMEOUT", 8*time.Second),
		RouterKeywords:   getEnv("ROUTER_KEYWORDS_JSON", ""),

		RAGEnabled:        getEnvAsBool("RAG_ENABLED", false),
		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "carely"),
		RAGTopK:           getEnvAsInt("RAG_TOP_K", 3),
		RAGCacheTTL:       getEnvAsDuration("RAG_CACHE_TTL", 15*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
