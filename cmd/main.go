package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"impactx/internal/ai/gemini"
	"impactx/internal/config"
	"impactx/internal/database/minio"
	"impactx/internal/database/postgres"
	"impactx/internal/database/redis"
	"impactx/internal/event"
	"impactx/internal/handlers"
	"impactx/internal/oracle"
	"impactx/internal/repository"
	"impactx/internal/services"
	"impactx/internal/worker"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
		}
	}()

	logDir := filepath.Join("/impactx", "log", "impact_service")
	fmt.Println("Log directory:", logDir)
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()
	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		log.Printf("Redis unavailable, aggregate caching disabled: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}
	defer minioClient.Close()

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Printf("RabbitMQ unavailable, event publishing disabled: %v", err)
		rabbitConn = nil
	} else {
		defer rabbitConn.Close()
	}
	publisher := event.NewImpactPublisher(rabbitConn)

	// Gemini is optional. Without a key the oracle runs on heuristics only
	// and submissions stay pending for human review.
	var selector *gemini.GeminiClientSelector
	if cfg.GeminiAPICfg.APIKey != "" {
		client, err := gemini.NewGenAIClient(cfg.GeminiAPICfg.APIKey, cfg.GeminiAPICfg.FlashName, cfg.GeminiAPICfg.ProName)
		if err != nil {
			log.Printf("Gemini client init failed, falling back to heuristics: %v", err)
		} else {
			selector = gemini.NewGeminiClientSelector([]gemini.GeminiClient{*client})
		}
	} else {
		log.Println("No Gemini API key configured, moderation runs on heuristics")
	}

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := worker.NewWorkingPool(4, 64)
	var poolWg sync.WaitGroup
	poolWg.Add(1)
	go pool.Start(appCtx, &poolWg)

	// repositories
	impactRepo := repository.NewImpactRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)

	// services
	oracleClient := oracle.NewClient(selector, minioClient, cfg.ServiceURL)
	moderationService := services.NewModerationService(impactRepo, verificationRepo, referralRepo, oracleClient, publisher, minioClient, cfg.ModerationCfg)
	impactService := services.NewImpactService(appCtx, impactRepo, verificationRepo, moderationService, minioClient, pool, cfg)
	poolService := services.NewPoolService(poolRepo, impactRepo)
	referralService := services.NewReferralService(referralRepo)
	metricsService := services.NewMetricsService(impactRepo, redisClient)
	challengeService := services.NewChallengeService(challengeRepo)
	seedService := services.NewSeedService(impactRepo, verificationRepo, poolRepo, referralRepo, challengeRepo, metricsService)

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024,
	})

	// handlers
	handlers.NewImpactHandler(impactService).Register(app)
	handlers.NewReviewHandler(moderationService).Register(app)
	handlers.NewPoolHandler(poolService).Register(app)
	handlers.NewReferralHandler(referralService).Register(app)
	handlers.NewPublicHandler(metricsService).Register(app)
	handlers.NewChallengeHandler(challengeService).Register(app)
	handlers.NewHealthHandler(db).Register(app)
	if os.Getenv("APP_ENV") != "production" {
		handlers.NewDevHandler(seedService).Register(app)
	}

	go func() {
		<-appCtx.Done()
		log.Println("Shutdown signaled, stopping HTTP server")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting impact-service on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	stop()
	poolWg.Wait()
}
