package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bdang10/Carely-AI/internal/agents/appointment"
	"github.com/bdang10/Carely-AI/internal/agents/qna"
	"github.com/bdang10/Carely-AI/internal/api/router"
	"github.com/bdang10/Carely-AI/internal/appointments"
	"github.com/bdang10/Carely-AI/internal/auth"
	"github.com/bdang10/Carely-AI/internal/chat"
	appconfig "github.com/bdang10/Carely-AI/internal/config"
	"github.com/bdang10/Carely-AI/internal/observability/metrics"
	"github.com/bdang10/Carely-AI/internal/patients"
	"github.com/bdang10/Carely-AI/internal/providers"
	"github.com/bdang10/Carely-AI/internal/rag"
	"github.com/bdang10/Carely-AI/internal/records"
	"github.com/bdang10/Carely-AI/internal/routing"
	"github.com/bdang10/Carely-AI/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting carely API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = redisClient.Close() }()

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)

	routerMetrics := metrics.NewRouterMetrics(prometheus.DefaultRegisterer)
	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)

	// Intent routing: lexical vote with LLM fallback below the threshold.
	keywordTable := routing.DefaultKeywordTable()
	if cfg.RouterKeywords != "" {
		table, err := routing.ParseKeywordTable(cfg.RouterKeywords)
		if err != nil {
			logger.Error("invalid ROUTER_KEYWORDS_JSON", "error", err)
			os.Exit(1)
		}
		keywordTable = table
	}
	verifier := routing.NewOpenAIVerifier(openaiClient, cfg.RouterModel, logger)
	intentRouter := routing.NewRouter(keywordTable, verifier, logger,
		routing.WithThreshold(cfg.RouterThreshold),
		routing.WithVerifyTimeout(cfg.RouterLLMTimeout),
		routing.WithMetrics(routerMetrics),
	)

	// Optional knowledge-base retrieval for the Q&A agent.
	var retrieval qna.ContextProvider
	if cfg.RAGEnabled {
		pinecone := rag.NewPineconeClient(cfg.PineconeIndexHost, cfg.PineconeAPIKey, logger)
		embedder := rag.NewOpenAIEmbedder(openaiClient, cfg.EmbeddingModel)
		retrieval = rag.NewService(embedder, pinecone, logger, rag.ServiceOptions{
			Namespace: cfg.PineconeNamespace,
			TopK:      cfg.RAGTopK,
			Cache:     rag.NewContextCache(redisClient, cfg.RAGCacheTTL),
			Metrics:   chatMetrics,
		})
	}

	appointmentsRepo := appointments.NewRepository(pool, logger)
	patientsRepo := patients.NewRepository(pool)
	recordsRepo := records.NewRepository(pool, logger)
	providersRepo := providers.NewRepository(pool, logger)
	chatStore := chat.NewStore(pool)

	appointmentAgent := appointment.New(openaiClient, appointmentsRepo, logger, appointment.Options{
		Model: cfg.ChatModel,
	})
	qnaAgent := qna.New(openaiClient, logger, qna.Options{
		Model:     cfg.ChatModel,
		MaxTokens: cfg.ChatMaxTokens,
		Retrieval: retrieval,
	})

	chatService := chat.NewService(chatStore, intentRouter, appointmentAgent, qnaAgent, openaiClient, logger, chat.ServiceOptions{
		Model:   cfg.ChatModel,
		Metrics: chatMetrics,
	})

	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	routerCfg := &router.Config{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(patientsRepo, tokenIssuer, logger),
		TokenIssuer:         tokenIssuer,
		ChatHandler:         chat.NewHandler(chatService, logger),
		PatientsHandler:     patients.NewHandler(patientsRepo, logger),
		AppointmentsHandler: appointments.NewHandler(appointmentsRepo, logger),
		RecordsHandler:      records.NewHandler(recordsRepo, logger),
		ProvidersHandler:    providers.NewHandler(providersRepo, logger),
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  5,
		RateLimitBurst:      20,
		DB:                  router.PingerFunc(pool.Ping),
		Redis: router.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
