package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"score-tracking-system/handlers"
	"score-tracking-system/middleware"
	"score-tracking-system/models"
	"score-tracking-system/services"
	"score-tracking-system/utils"
	"score-tracking-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024, // evidence videos
	})

	// Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Platform{},
		&models.Game{},
		&models.MiniGame{},
		&models.Mode{},
		&models.Stage{},
		&models.StageContext{},
		&models.CharacterCostume{},
		&models.Player{},
		&models.Score{},
		&models.ScorePlayer{},
		&models.ScoreApproval{},
		&models.WorldRecordScan{},
		&models.WorldRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	sweepInterval := 30 * time.Second
	if v := os.Getenv("SCAN_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sweepInterval = d
		}
	}

	recordWorker := workers.NewWorldRecordWorker(db, sweepInterval)
	scoreService := services.NewScoreService(db, recordWorker)
	leaderboardService := services.NewLeaderboardService(db)
	referenceService := services.NewReferenceService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recordWorker.Start(ctx)

	handlers.SetupScoreRoutes(app, scoreService, leaderboardService, recordWorker)
	handlers.SetupReferenceRoutes(app, referenceService)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":5300"
	}

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server running on %s", addr)
	log.Printf("World record scan worker running (sweep every %s)", sweepInterval)
	log.Printf("CORS configured for origins: %s", strings.TrimSpace(allowedOrigins))

	<-ctx.Done()
	log.Println("Shutting down server...")
}
