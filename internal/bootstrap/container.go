package bootstrap

import (
	"context"
	"log"

	"orchestration-agent/internal/config"
	"orchestration-agent/internal/controller"
	"orchestration-agent/internal/handler"
	"orchestration-agent/internal/metrics"
	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/internal/pkg/serverutils"
	"orchestration-agent/internal/repository/cache"
	"orchestration-agent/internal/repository/contract"
	"orchestration-agent/internal/repository/implementation"
	"orchestration-agent/internal/repository/memory"
	"orchestration-agent/internal/service"
	"orchestration-agent/internal/websocket"
	"orchestration-agent/pkg/events"
	"orchestration-agent/pkg/llm"
	"orchestration-agent/pkg/llm/factory"
	"orchestration-agent/pkg/llm/rotation"
	pktNats "orchestration-agent/pkg/nats"
	"orchestration-agent/pkg/orchestration/capability"
	"orchestration-agent/pkg/orchestration/document"
	"orchestration-agent/pkg/orchestration/executor"
	"orchestration-agent/pkg/orchestration/planner"
	"orchestration-agent/pkg/orchestration/response"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompletionTopic carries finished orchestrations from the service to the consumer.
const CompletionTopic = "ORCHESTRATION_COMPLETED"

type Container struct {
	// Controllers
	OrchestrationController controller.IOrchestrationController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Progress
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub

	JwtMiddleware fiber.Handler
	Logger        logger.ILogger

	closers []func()
}

// NewContainer wires every component. db may be nil, in which case runs are
// not audited; Redis and NATS are likewise skipped when their URL is empty.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 1. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 2. Text generation
	var generator llm.TextGenerator = rotation.Unconfigured{}
	llmConfigured := false
	rotator, err := rotation.NewRotator(
		cfg.Ai.Credentials(),
		func(credential string) (llm.LLMProvider, error) {
			return factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.LLMBaseURL, credential)
		},
		sysLogger,
		rotation.WithCallTimeout(cfg.Orchestration.LLMCallTimeout),
		rotation.WithObserver(metrics.RecordRotation),
	)
	if err != nil {
		log.Printf("[WARN] Text generation disabled: %v", err)
	} else {
		generator = rotator
		llmConfigured = true
		log.Printf("[INFO] Using LLM Provider: %s (%s) with %d credential(s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel, rotator.Len())
	}

	// 3. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var eventPublisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var resultStore contract.ResultStore
	if rdb != nil {
		resultStore = cache.NewRedisResultStore(rdb, cfg.Orchestration.ResultTTL)
	}

	var runRepository contract.OrchestrationRunRepository
	if db != nil {
		runRepository = implementation.NewOrchestrationRunRepository(db)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.HubLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Pipeline
	documentClient := document.NewClient(
		cfg.Services.DocumentServiceURL,
		cfg.Orchestration.DocumentTimeout,
		cfg.Orchestration.ContextCacheTTL,
		sysLogger,
	)
	capabilityClient := capability.NewClient(cfg.Services.WrapperURL, cfg.Orchestration.ActionTimeout)

	actionPlanner := planner.NewPlanner(generator, sysLogger, planner.WithMaxAttempts(cfg.Orchestration.PlanningAttempts))
	actionExecutor := executor.NewExecutor(capabilityClient, sysLogger, cfg.Orchestration.ActionTimeout)
	synthesizer := response.NewSynthesizer(generator, sysLogger)

	// 5. Services
	publisherService := service.NewPublisherService(CompletionTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		CompletionTopic,
		runRepository,
		eventPublisher,
		sysLogger,
	)

	orchestrationService := service.NewOrchestrationService(
		documentClient,
		actionPlanner,
		actionExecutor,
		synthesizer,
		memory.NewExecutionRepository(),
		resultStore,
		runRepository,
		publisherService,
		wsHub,
		cfg.Orchestration.DefaultAgentID,
		llmConfigured,
		sysLogger,
	)

	c.OrchestrationController = controller.NewOrchestrationController(orchestrationService)
	c.ConsumerService = consumerService
	c.ProgressHandler = handler.NewProgressHandler(wsHub, cfg.App.JwtSecret, wsLogger)
	c.WebSocketHub = wsHub
	c.JwtMiddleware = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
