package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/evalytics-ai/assessment-service/internal/cache"
	"github.com/evalytics-ai/assessment-service/internal/config"
	"github.com/evalytics-ai/assessment-service/internal/handlers"
	"github.com/evalytics-ai/assessment-service/internal/judge0"
	"github.com/evalytics-ai/assessment-service/internal/repositories/postgres"
	"github.com/evalytics-ai/assessment-service/internal/services"
	"github.com/evalytics-ai/assessment-service/internal/session"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/evalytics-ai/assessment-service/internal/validator"
	"github.com/evalytics-ai/assessment-service/internal/workers"
	"github.com/evalytics-ai/assessment-service/pkg"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("configuration load failed", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	logger.Info("starting assessment service",
		"port", cfg.Port,
		"environment", cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "database connection failed")
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.LogError(err, "database migration failed")
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.LogError(err, "redis connection failed")
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "event publisher setup failed")
		os.Exit(1)
	}
	defer publisher.Close()

	// Repositories and shared infrastructure.
	repos := postgres.NewRepositories(db)
	sessionCache := cache.NewSessionCache(redisClient)
	redisCache := cache.NewRedisCache(redisClient, logger)
	v := validator.New()
	clock := session.RealClock()
	runner := judge0.New(cfg.Judge0URL, cfg.Judge0APIKey, slogger)

	// Services.
	authService := services.NewAuthService(repos.Users(), cfg.JWTSecret, slogger, v)
	assessmentService := services.NewAssessmentService(repos.Assessments(), repos.Results(), redisCache, slogger, v)
	gradingService := services.NewGradingService(runner, slogger)
	sessionService := services.NewSessionService(repos, repos, sessionCache, gradingService, runner, publisher, slogger, clock)
	resultService := services.NewResultService(repos.Results(), repos.Assessments(), slogger)
	interviewService := services.NewInterviewService(repos.Interviews(), services.NewKeywordEvaluator(), publisher, slogger)

	// Background workers.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	autosaveWorker := workers.NewAutosaveWorker(sessionCache, repos.Sessions(), logger)
	reaperWorker := workers.NewReaperWorker(repos.Sessions(), sessionService, clock, logger)
	go autosaveWorker.Run(workerCtx)
	go reaperWorker.Run(workerCtx)

	// HTTP layer.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	hm := handlers.NewHandlerManager(
		authService,
		assessmentService,
		sessionService,
		resultService,
		interviewService,
		cfg.Environment == "production",
		logger,
	)
	hm.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "server error")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "server shutdown error")
	}

	// Let the workers drain their queues before the process exits.
	stopWorkers()
	time.Sleep(2 * time.Second)

	logger.Info("shutdown complete")
}
