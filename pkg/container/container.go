package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"vnpay-acquirer/internal/config"
	"vnpay-acquirer/internal/infrastructure/database"
	"vnpay-acquirer/internal/infrastructure/queue"
	"vnpay-acquirer/pkg/jwt"
	"vnpay-acquirer/pkg/logger"

	// Acquirer domain
	acquirerHandler "vnpay-acquirer/internal/domains/acquirer/handler"
	acquirerRepo "vnpay-acquirer/internal/domains/acquirer/repository"
	acquirerService "vnpay-acquirer/internal/domains/acquirer/service"

	// Token domain
	tokenHandler "vnpay-acquirer/internal/domains/token/handler"
	tokenRepo "vnpay-acquirer/internal/domains/token/repository"
	tokenService "vnpay-acquirer/internal/domains/token/service"

	// Payment domain
	"vnpay-acquirer/internal/domains/payment/gateway"
	"vnpay-acquirer/internal/domains/payment/gateway/vnpay"
	paymentHandler "vnpay-acquirer/internal/domains/payment/handler"
	paymentJob "vnpay-acquirer/internal/domains/payment/job"
	paymentRepo "vnpay-acquirer/internal/domains/payment/repository"
	paymentService "vnpay-acquirer/internal/domains/payment/service"
)

// ========================================
// CONTAINER
// ========================================

// Container holds the dependency graph shared by cmd/api and cmd/worker
type Container struct {
	Config   *config.Config
	DBConfig *database.DBConfig

	// Infrastructure
	DB          *database.PostgresDB
	Redis       *queue.RedisClient
	AsynqClient *asynq.Client
	JWTManager  *jwt.Manager
	Gateway     gateway.Gateway

	// Repositories
	AcquirerRepo    acquirerRepo.AcquirerRepository
	PartnerRepo     tokenRepo.PartnerRepository
	TokenRepo       tokenRepo.TokenRepository
	TransactionRepo paymentRepo.TransactionRepository
	FeedbackLogRepo paymentRepo.FeedbackLogRepository

	// Services
	TokenService    tokenService.TokenService
	AcquirerService acquirerService.AcquirerService
	PaymentService  paymentService.PaymentService

	// Handlers
	AcquirerHandler *acquirerHandler.AcquirerHandler
	TokenHandler    *tokenHandler.TokenHandler
	PaymentHandler  *paymentHandler.PaymentHandler
}

// NewContainer builds the whole dependency graph.
//
// Initialization order:
// 1. Infrastructure (DB, Redis, asynq client, gateway client)
// 2. Repositories
// 3. Services
// 4. Handlers
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.Info("🔧 Initializing DI Container...", nil)

	c := &Container{Config: cfg}

	// ========================================
	// STEP 1: DATABASE
	// ========================================
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	c.DBConfig = dbConfig

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	// ========================================
	// STEP 2: REDIS & ASYNQ
	// ========================================
	c.Redis = queue.NewRedisClient(cfg.Redis)
	if err := c.Redis.Connect(ctx); err != nil {
		// Callbacks cannot be queued without redis; feedback is still
		// recorded and replayed later, so startup goes on
		logger.Warn("⚠️  Redis connection failed (non-critical)", map[string]interface{}{
			"error": err.Error(),
		})
	}
	c.AsynqClient = asynq.NewClient(c.Redis.RedisOpt())

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// ========================================
	// STEP 3: GATEWAY CLIENT
	// ========================================
	gw, err := vnpay.NewClient(vnpay.NewConfig(
		cfg.Gateway.APIURL,
		cfg.Gateway.APIVersion,
		cfg.Gateway.Timeout,
	))
	if err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init gateway client: %w", err)
	}
	c.Gateway = gw

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("🎉 DI Container initialized successfully", map[string]interface{}{
		"environment": cfg.App.Environment,
	})
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.AcquirerRepo = acquirerRepo.NewAcquirerRepository(pool)
	c.PartnerRepo = tokenRepo.NewPartnerRepository(pool)
	c.TokenRepo = tokenRepo.NewTokenRepository(pool)
	c.TransactionRepo = paymentRepo.NewTransactionRepository(pool)
	c.FeedbackLogRepo = paymentRepo.NewFeedbackLogRepository(pool)
}

func (c *Container) initServices() {
	c.TokenService = tokenService.NewTokenService(
		c.TokenRepo,
		c.PartnerRepo,
		c.AcquirerRepo,
		c.Gateway,
	)

	c.AcquirerService = acquirerService.NewAcquirerService(
		c.AcquirerRepo,
		c.TokenService,
		c.Gateway,
	)

	c.PaymentService = paymentService.NewPaymentService(
		c.TransactionRepo,
		c.FeedbackLogRepo,
		c.AcquirerRepo,
		c.TokenRepo,
		c.Gateway,
		paymentJob.NewCallbackEnqueuer(c.AsynqClient, c.Config.Worker.CallbackTimeout),
		paymentJob.NewHTTPCallbackSender(c.Config.Worker.CallbackTimeout),
	)
}

func (c *Container) initHandlers() {
	c.AcquirerHandler = acquirerHandler.NewAcquirerHandler(c.AcquirerService)
	c.TokenHandler = tokenHandler.NewTokenHandler(c.TokenService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
}

// HealthCheck reports UP or DOWN per dependency
func (c *Container) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{"database": "UP", "redis": "UP"}

	if err := c.DB.HealthCheck(ctx); err != nil {
		status["database"] = "DOWN"
	}
	if err := c.Redis.HealthCheck(ctx); err != nil {
		status["redis"] = "DOWN"
	}

	return status
}

// Cleanup releases every connection, called on graceful shutdown
func (c *Container) Cleanup() {
	logger.Info("🧹 Cleaning up container resources...", nil)

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("⚠️  Failed to close asynq client", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("⚠️  Failed to close Redis", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	logger.Info("✅ Container cleanup completed", nil)
}
