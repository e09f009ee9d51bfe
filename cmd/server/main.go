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

	"skillbeam-backend/internal/config"
	"skillbeam-backend/internal/database"
	"skillbeam-backend/internal/handlers"
	"skillbeam-backend/internal/middleware"
	"skillbeam-backend/internal/repository"
	"skillbeam-backend/internal/router"
	"skillbeam-backend/internal/services"
	"skillbeam-backend/internal/websocket"
	"skillbeam-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting SkillBeam Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)
	contentRepo := repository.NewContentRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	exportRepo := repository.NewExportRepo(pool)
	versionRepo := repository.NewVersionRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		cfg.GeminiConcurrentReqs,
		contentRepo,
		projectRepo,
		jobRepo,
		redisClients.Queue,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	exportService := services.NewExportService(contentRepo, exportRepo, cfg.StoragePath)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectRepo, contentRepo, jobRepo, exportRepo, versionRepo)
	contentHandler := handlers.NewContentHandler(projectRepo, contentRepo, versionRepo)
	generateHandler := handlers.NewGenerateHandler(projectRepo, jobRepo, redisClients.Queue)
	exportHandler := handlers.NewExportHandler(projectRepo, contentRepo, exportRepo, jobRepo, redisClients.Queue)
	pronoteHandler := handlers.NewPronoteHandler(projectRepo, contentRepo, versionRepo)
	versionHandler := handlers.NewVersionHandler(projectRepo, contentRepo, versionRepo)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		geminiService,
		exportService,
		projectRepo,
		jobRepo,
		exportRepo,
		cfg.JobMaxRetries,
		5,
	)
	workerPool.Start()
	log.Println("✓ Worker pool started (5 goroutines)")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		projectHandler,
		contentHandler,
		generateHandler,
		exportHandler,
		pronoteHandler,
		versionHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ SkillBeam Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("✗ Server error: %v", err)
	}
}
