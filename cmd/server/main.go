package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/clipscout/clipscout/internal/analysis"
	"github.com/clipscout/clipscout/internal/cleanup"
	"github.com/clipscout/clipscout/internal/completion"
	"github.com/clipscout/clipscout/internal/handlers"
	"github.com/clipscout/clipscout/internal/queue"
	"github.com/clipscout/clipscout/internal/storage"
	"github.com/clipscout/clipscout/internal/transcription"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Completion struct {
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		MaxRequests    int    `yaml:"max_requests"`
		WindowSeconds  int    `yaml:"window_seconds"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"completion"`

	Transcription struct {
		BaseURL             string `yaml:"base_url"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
		MaxAttempts         int    `yaml:"max_attempts"`
		TimeoutSeconds      int    `yaml:"timeout_seconds"`
	} `yaml:"transcription"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`
}

func main() {
	// API keys live in the environment, not in the config file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	completionKey := os.Getenv("PERPLEXITY_API_KEY")
	if completionKey == "" {
		log.Fatal("PERPLEXITY_API_KEY is not set")
	}
	transcriptionKey := os.Getenv("TRANSCRIPTION_API_KEY")
	if transcriptionKey == "" {
		log.Fatal("TRANSCRIPTION_API_KEY is not set")
	}

	log.Println("Initializing components...")

	// Completion client with its fixed-window rate limiter
	completionClient := completion.NewClient(completion.Config{
		APIKey:      completionKey,
		BaseURL:     config.Completion.BaseURL,
		Model:       config.Completion.Model,
		MaxRequests: config.Completion.MaxRequests,
		Window:      time.Duration(config.Completion.WindowSeconds) * time.Second,
		Timeout:     time.Duration(config.Completion.TimeoutSeconds) * time.Second,
	})

	// Transcription job client
	transcriptionClient := transcription.NewClient(transcription.Config{
		BaseURL:      config.Transcription.BaseURL,
		APIKey:       transcriptionKey,
		Timeout:      time.Duration(config.Transcription.TimeoutSeconds) * time.Second,
		MaxAttempts:  config.Transcription.MaxAttempts,
		PollInterval: time.Duration(config.Transcription.PollIntervalSeconds) * time.Second,
	})

	// Clip extraction engine
	engine := analysis.NewEngine(completionClient)

	// Database
	if err := os.MkdirAll(filepath.Dir(config.Storage.Database), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	store, err := storage.NewStore(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Worker pool
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerPool := queue.NewWorkerPool(
		config.Workers.Count,
		transcriptionClient,
		engine,
		store,
	)
	workerPool.Start(ctx)

	// Retention scheduler
	retention := cleanup.NewScheduler(store, config.Cleanup.IntervalMinutes, config.Cleanup.MaxAgeHours)
	retention.Start()
	defer retention.Stop()

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	analyzeHandler := handlers.NewAnalyzeHandler(workerPool, store)
	jobsHandler := handlers.NewJobsHandler(store)
	scoreHandler := handlers.NewScoreHandler()
	statusHandler := handlers.NewStatusHandler(store)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/analyze", analyzeHandler.Handle)
	app.Post("/score", scoreHandler.Handle)
	app.Get("/jobs", jobsHandler.List)
	app.Get("/jobs/:id", jobsHandler.Get)
	app.Get("/jobs/:id/clips", jobsHandler.GetClips)

	// WebSocket route
	app.Get("/ws/jobs/:id", websocket.New(statusHandler.Handle))

	// Rate limit visibility for operators
	app.Get("/ratelimit", func(c *fiber.Ctx) error {
		return c.JSON(completionClient.RateLimitState())
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /analyze        - Submit an audio URL for clip analysis")
	log.Println("   POST /score          - Heuristic viral score (no API quota)")
	log.Println("   GET  /jobs           - List analysis jobs")
	log.Println("   GET  /jobs/:id       - Get job state")
	log.Println("   GET  /jobs/:id/clips - Get ranked clip candidates")
	log.Println("   GET  /ws/jobs/:id    - WebSocket job status stream")
	log.Println("   GET  /ratelimit      - Completion quota window state")
	log.Println("   GET  /health         - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		cancel()
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
