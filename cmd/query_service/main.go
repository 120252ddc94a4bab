package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lifequery/internal/config"
	"lifequery/internal/database/milvus"
	mongodb "lifequery/internal/database/mongo"
	"lifequery/internal/database/mysql"
	redisdb "lifequery/internal/database/redis"
	"lifequery/internal/directory"
	"lifequery/internal/embedding"
	"lifequery/internal/llm"
	"lifequery/internal/query_service/api"
	"lifequery/internal/queryengine"
	"lifequery/internal/queryengine/ports"
	"lifequery/internal/queryengine/retrieve"
	"lifequery/internal/storage/eventstore"
	"lifequery/internal/storage/vectorstore"
	"lifequery/internal/usage"
	"lifequery/pkg/circuitbreaker"
	httpserver "lifequery/pkg/http"
	"lifequery/pkg/logger"
	"lifequery/pkg/ratelimiter"
)

func main() {
	// 1. Initialize logger
	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("QueryService", "", "")
	appLogger.Info("Starting query service...")

	// 2. Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger.Info("Configuration loaded successfully.")

	ctx := context.Background()

	// 3. Connect storage backends
	milvusClient, err := milvus.Connect(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	mongoDB, err := mongodb.Connect(ctx, &cfg.Databases.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	gormDB, err := mysql.Connect(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}

	// 4. Build the engine's collaborators
	vectors, err := vectorstore.NewMilvusStore(milvusClient, cfg.Databases.Milvus.Collection, appLogger)
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}
	events := eventstore.NewMongoEventStore(mongoDB, cfg.Databases.Mongo.EventCollection)

	var dir ports.Directory = directory.NewMySQLDirectory(gormDB)
	if cfg.Databases.Redis.Address != "" {
		redisClient, err := redisdb.Connect(ctx, &cfg.Databases.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		ttl := time.Duration(cfg.Databases.Redis.TTL) * time.Second
		dir = directory.NewCachedDirectory(dir, redisClient, ttl, appLogger)
	}

	embedder, err := newEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	chatModel, err := newChatModel(ctx, &cfg.Chat)
	if err != nil {
		log.Fatalf("Failed to create chat client: %v", err)
	}
	if cfg.Middleware.CircuitBreaker.Enabled {
		breakerCfg := cfg.Middleware.CircuitBreaker
		breaker := circuitbreaker.New(
			breakerCfg.FailureThreshold,
			breakerCfg.SuccessThreshold,
			time.Duration(breakerCfg.Cooldown)*time.Second,
		)
		chatModel = llm.NewResilientChat(chatModel, breaker)
		appLogger.Info("Circuit breaker enabled for chat-completion calls.")
	}

	var usagePublisher ports.UsagePublisher
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		publisher := usage.NewKafkaPublisher(cfg.Databases.Kafka.Brokers, cfg.Databases.Kafka.UsageTopic)
		defer publisher.Close()
		usagePublisher = publisher
	} else {
		appLogger.Warn("Kafka brokers not configured; usage events will not be published.")
	}

	// 5. Construct the engine
	engine := queryengine.New(queryengine.Deps{
		Embedder:  embedder,
		Vectors:   vectors,
		Events:    events,
		Chat:      chatModel,
		Directory: dir,
		Usage:     usagePublisher,
		Logger:    appLogger,
		Retriever: retrieve.Options{
			PersonalTopK: cfg.Engine.PersonalTopK,
			CountTopK:    cfg.Engine.CountTopK,
			CircleTopK:   cfg.Engine.CircleTopK,
			EventLimit:   cfg.Engine.EventLimit,
		},
		MaxContextChars: cfg.Engine.MaxContextChars,
	})

	// 6. Start the HTTP server
	router := gin.Default()

	var limiter *ratelimiter.Keyed
	if cfg.Middleware.RateLimiter.Enabled {
		limiterCfg := cfg.Middleware.RateLimiter
		limiter = ratelimiter.NewKeyed(func() ratelimiter.RateLimiter {
			return ratelimiter.NewTokenBucket(limiterCfg.Rate, limiterCfg.Burst)
		})
		appLogger.Info("Per-user rate limiting enabled.")
	}
	api.RegisterRoutes(router, api.NewAPI(engine, appLogger), limiter)

	server := httpserver.NewServer(cfg.Server.HTTPAddr, router)

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", server.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 7. Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down query service...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown of HTTP server")
	}
	appLogger.Info("Query service stopped.")
}

// newEmbedder builds the embedding client the configuration selects.
func newEmbedder(ctx context.Context, cfg *config.ProviderConfig) (ports.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return embedding.NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return embedding.NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.Address)
	case "gemini":
		return embedding.NewGoogleModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}

// newChatModel builds the chat-completion client the configuration selects.
func newChatModel(ctx context.Context, cfg *config.ProviderConfig) (ports.ChatModel, error) {
	switch cfg.Provider {
	case "openai":
		return llm.NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey)
	case "ollama":
		return llm.NewOllama(cfg.Ollama.Model, cfg.Ollama.Address)
	case "gemini":
		return llm.NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unknown chat provider: %q", cfg.Provider)
	}
}
