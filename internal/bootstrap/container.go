package bootstrap

import (
	"context"
	"fmt"
	"log"

	"learnly-chat-be/internal/config"
	"learnly-chat-be/internal/controller"
	"learnly-chat-be/internal/handler"
	"learnly-chat-be/internal/metrics"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/repository/implementation"
	"learnly-chat-be/internal/service"
	"learnly-chat-be/internal/websocket"
	"learnly-chat-be/pkg/database"
	"learnly-chat-be/pkg/docstore"
	"learnly-chat-be/pkg/llm/factory"
	pktNats "learnly-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	ChatController    controller.IChatController
	ChatSocketHandler *handler.ChatSocketHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Metrics *metrics.Metrics
	Logger  logger.ILogger

	closers []func()
}

// NewDocumentStore opens the store selected by DOCSTORE_DRIVER.
func NewDocumentStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		return docstore.NewMemoryStore(), nil
	case "postgres", "":
		if cfg.Database.Connection == "" {
			return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
		}
		db, err := database.NewGormDB(cfg.Database.GormOptions())
		if err != nil {
			return nil, fmt.Errorf("connect to GORM DB: %w", err)
		}
		return docstore.NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported DOCSTORE_DRIVER: %s", cfg.Database.Driver)
	}
}

func NewContainer(store docstore.Store, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	store = docstore.WithObserver(store, m.ObserveDocstore)

	sessionRepo := implementation.NewChatSessionRepository(store)
	messageRepo := implementation.NewChatMessageRepository(store)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:     cfg.Ai.LLMProvider,
		Model:        cfg.Ai.LLMModel,
		GeminiAPIKey: cfg.Keys.GoogleGemini,
		OllamaURL:    cfg.Ai.OllamaBaseURL,
		Timeout:      cfg.Ai.Timeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	c := &Container{Metrics: m, Logger: sysLogger}

	var eventPub service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPub = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	var rdb *redis.Client
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb = redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Websocket fan-out stays local", err)
		rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, m, wsLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.ActivityTopic, pubSub)
	chatService := service.NewChatService(
		sessionRepo,
		messageRepo,
		llmProvider,
		publisherService,
		m,
		sysLogger,
		cfg.Chat.FallbackReply,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.ActivityTopic,
		wsHub,
		eventPub,
		sysLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService, cfg.Keys.JwtSecret)
	c.ChatSocketHandler = handler.NewChatSocketHandler(chatService, wsHub, cfg.Keys.JwtSecret, wsLogger)
	c.ConsumerService = consumerService
	c.WebSocketHub = wsHub
	return c
}

// Close releases bus and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
