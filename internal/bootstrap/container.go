package bootstrap

import (
	"context"
	"log"
	"time"

	"voice-ordering-be/internal/config"
	"voice-ordering-be/internal/controller"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/repository/contract"
	"voice-ordering-be/internal/repository/implementation"
	"voice-ordering-be/internal/repository/memory"
	redisRepo "voice-ordering-be/internal/repository/redis"
	"voice-ordering-be/internal/service"
	"voice-ordering-be/internal/websocket"
	"voice-ordering-be/pkg/embedding"
	"voice-ordering-be/pkg/embedding/jina"
	"voice-ordering-be/pkg/intent"
	"voice-ordering-be/pkg/llm/factory"
	pktNats "voice-ordering-be/pkg/nats"
	"voice-ordering-be/pkg/order"
	"voice-ordering-be/pkg/rerank"
	"voice-ordering-be/pkg/retrieval"
	"voice-ordering-be/pkg/store"
	"voice-ordering-be/pkg/stt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	MenuController  controller.IMenuController
	OrderController controller.IOrderController

	// WebSockets
	AudioHandler *websocket.Handler

	// Background services (exposed for main.go to run)
	IndexerService   service.IIndexerService
	PublisherService service.IPublisherService

	// Shared infrastructure
	MenuRepository contract.MenuItemRepository
	SessionStore   store.SessionStore
	Logger         logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Repositories
	menuRepo := implementation.NewMenuItemRepository(db)

	// Session store, backend per config
	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	var sessionStore store.SessionStore
	if cfg.Session.Backend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionStore = redisRepo.NewSessionRepository(rdb, sessionTTL)
		log.Printf("[INFO] Using Session Backend: REDIS")
	} else {
		sessionStore = memory.NewSessionRepository(sessionTTL)
		log.Printf("[INFO] Using Session Backend: MEMORY (ttl %s)", sessionTTL)
	}

	// Embedding provider
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	}

	// LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Reranker scorer
	var scorer rerank.Scorer
	if cfg.Ai.RerankProvider == "tei" {
		scorer = rerank.NewTeiScorer(cfg.Ai.TeiRerankURL)
		log.Printf("[INFO] Using Rerank Provider: TEI (%s)", cfg.Ai.TeiRerankURL)
	} else {
		scorer = rerank.NewJinaScorer(cfg.Keys.Jina)
		log.Printf("[INFO] Using Rerank Provider: JINA AI")
	}

	// Speech provider
	sttProvider, err := stt.NewProvider(stt.Config{
		Provider:       cfg.Stt.Provider,
		DeepgramAPIKey: cfg.Stt.DeepgramAPIKey,
		DeepgramModel:  cfg.Stt.DeepgramModel,
		AzureKey:       cfg.Stt.AzureKey,
		AzureRegion:    cfg.Stt.AzureRegion,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize STT Provider: %v", err)
	}
	log.Printf("[INFO] Using STT Provider: %s", cfg.Stt.Provider)

	// Core pipeline
	engine := retrieval.NewEngine(menuRepo, sysLogger)
	reranker := rerank.NewReranker(scorer, cfg.Ai.RerankFloor, sysLogger)
	classifier := intent.NewClassifier(llmProvider, sysLogger)
	pipeline := order.NewPipeline(
		sessionStore,
		menuRepo,
		embeddingProvider,
		engine,
		reranker,
		classifier,
		sysLogger,
		order.Config{
			MaxResults:        cfg.Ai.MaxResults,
			DistanceThreshold: cfg.Ai.DistanceThreshold,
			Timeout:           time.Duration(cfg.Ai.PipelineTimeoutS) * time.Second,
		},
	)

	// Event bus for embedding work
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	indexerService := service.NewIndexerService(pubSub, cfg.App.MenuEmbedTopic, menuRepo, embeddingProvider, sysLogger)

	var publisherService service.IPublisherService
	if cfg.App.EventBus == "nats" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to NATS Publisher: %v", err)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to NATS Subscriber: %v", err)
		}
		publisherService = service.NewNatsPublisherService(natsPub)
		if err := indexerService.StartNats(natsSub); err != nil {
			log.Fatalf("[FATAL] Failed to start NATS indexer: %v", err)
		}
		log.Printf("[INFO] Using Event Bus: NATS (%s)", cfg.App.NatsURL)
	} else {
		publisherService = service.NewWatermillPublisherService(pubSub, cfg.App.MenuEmbedTopic)
		if err := indexerService.Consume(context.Background()); err != nil {
			log.Fatalf("[FATAL] Failed to start indexer consumer: %v", err)
		}
		log.Printf("[INFO] Using Event Bus: MEMORY (topic %s)", cfg.App.MenuEmbedTopic)
	}

	// Services
	menuService := service.NewMenuService(menuRepo)
	orderService := service.NewOrderService(pipeline, sttProvider, sessionStore, menuRepo, sysLogger)

	// Controllers & websocket
	menuController := controller.NewMenuController(menuService)
	orderController := controller.NewOrderController(orderService)
	audioHandler := websocket.NewHandler(orderService, sttProvider, sessionStore, sysLogger)

	return &Container{
		MenuController:   menuController,
		OrderController:  orderController,
		AudioHandler:     audioHandler,
		IndexerService:   indexerService,
		PublisherService: publisherService,
		MenuRepository:   menuRepo,
		SessionStore:     sessionStore,
		Logger:           sysLogger,
	}
}
