package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/handlers"
	"github.com/onurcolak/survey-campaign-bot/internal/conversation"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/internal/inbound"
	"github.com/onurcolak/survey-campaign-bot/internal/middlewares"
	"github.com/onurcolak/survey-campaign-bot/internal/repository"
	"github.com/onurcolak/survey-campaign-bot/internal/scheduler"
	"github.com/onurcolak/survey-campaign-bot/internal/service"
	"github.com/onurcolak/survey-campaign-bot/pkg/database"
	"github.com/onurcolak/survey-campaign-bot/pkg/gateway"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
	"github.com/onurcolak/survey-campaign-bot/pkg/redis"
	"github.com/onurcolak/survey-campaign-bot/pkg/shortener"
	"github.com/onurcolak/survey-campaign-bot/pkg/surveyapi"
	"github.com/onurcolak/survey-campaign-bot/pkg/validator"
	"github.com/onurcolak/survey-campaign-bot/routes"

	_ "github.com/onurcolak/survey-campaign-bot/docs" // swagger docs
)

// @title Survey Campaign Bot API
// @version 1.0
// @description Outbound WhatsApp survey campaigns with question-by-question fallback

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3001
// @BasePath /

// @schemes http https
func main() {
	cfg, err := environments.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// Hard-fail if required secrets are missing
	if cfg.Gateway.AuthKey == "" {
		logger.Fatalf("GATEWAY_AUTH_KEY is required but not set")
	}

	logger.Infof("Starting Survey Campaign Bot...")

	// Init DB
	db, err := database.NewDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warnf("Redis not available, short link caching disabled: %v", err)
			redisClient = nil
		}
	}

	gatewayClient := gateway.NewGatewayClient(cfg.Gateway)
	logger.Infof("Gateway configured: %s", gatewayClient.GetURL())

	surveyClient := surveyapi.NewSurveyAPIClient(cfg.SurveyAPI)

	var links conversation.LinkShortener
	if cfg.Shortener.Enabled {
		var cache shortener.Cache
		if redisClient != nil {
			cache = redisClient
		}
		links = shortener.NewTinyURL(cfg.Shortener, cache)
	}

	var completion conversation.CompletionChecker
	if cfg.SurveyAPI.CompletionCheck {
		completion = surveyapi.NewCompletionChecker(surveyClient)
	}

	clientRepo := repository.NewClientRepository(db)
	responseRepo := repository.NewResponseRepository(db)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler()
	if err := sched.Start(ctx); err != nil {
		logger.Fatalf("Failed to start timer scheduler: %v", err)
	}

	engine := conversation.NewEngine(conversation.Dependencies{
		Directory:  clientRepo,
		Responses:  responseRepo,
		Catalog:    surveyClient,
		Completion: completion,
		Links:      links,
		Messenger:  gatewayClient,
		Timers:     sched,
	}, cfg.Conversation)

	campaign := conversation.NewCampaign(engine, cfg.Campaign)

	var pending interface {
		ListPendingClients(ctx context.Context) ([]domain.Client, error)
	} = surveyClient
	if cfg.SurveyAPI.PendingSource == "database" {
		pending = pendingFromDatabase{clientRepo}
	}

	workflowService := service.NewWorkflowService(pending, clientRepo, responseRepo, engine, campaign)

	router := inbound.NewRouter(engine)

	var consumer *inbound.Consumer
	if cfg.Inbound.AMQPURL != "" {
		consumer = inbound.NewConsumer(router, cfg.Inbound)
		if err := consumer.Start(ctx); err != nil {
			logger.Fatalf("Failed to start inbound consumer: %v", err)
		}
	} else {
		logger.Infof("INBOUND_AMQP_URL not set, inbound events only via webhook")
	}

	// Initialize handlers
	var cachePinger interface {
		Ping(ctx context.Context) error
	}
	if redisClient != nil {
		cachePinger = redisClient
	}

	healthHandler := handlers.NewHealthHandler(db, cachePinger, gatewayClient)
	workflowHandler := handlers.NewWorkflowHandler(workflowService)
	inboundHandler := handlers.NewInboundHandler(router)
	schedulerHandler := handlers.NewSchedulerHandler(sched, ctx)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			middlewares.InboundKeyHeader,
		},
	}))

	routes.RegisterRoutes(e, healthHandler, workflowHandler, inboundHandler, schedulerHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Shutdown HTTP server first so no new work arrives
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	if consumer != nil {
		logger.Infof("Stopping inbound consumer...")
		consumer.Stop()
	}

	logger.Infof("Draining inbound lanes...")
	router.Wait()

	// Stop scheduler (with timeout)
	if sched.IsRunning() {
		logger.Infof("Stopping scheduler...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping scheduler: %v", err)
			}
		case <-stopCtx.Done():
			logger.Warnf("Scheduler stop timeout, forcing shutdown")
		}
	}

	cancel()

	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}

// pendingFromDatabase lists pending clients from the local clients table.
type pendingFromDatabase struct {
	repo *repository.ClientRepository
}

func (p pendingFromDatabase) ListPendingClients(ctx context.Context) ([]domain.Client, error) {
	return p.repo.ListPending(ctx)
}
