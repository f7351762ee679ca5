package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/cache"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/config"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/handlers"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/quiz"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/scheduler"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/security"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/service"
)

const policyCacheTTL = 5 * time.Minute

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	wordRepo := repository.NewWordRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	resultRepo := repository.NewTestResultRepository(db)
	gameRepo := repository.NewGameRepository(db)

	// Reward policy cache is optional
	var policyCache service.PolicyCache
	redisCache, err := cache.NewPolicyCache(context.Background(), cfg.RedisAddr, policyCacheTTL)
	if err != nil {
		log.Printf("Warning: reward policy cache disabled: %v", err)
	} else if redisCache != nil {
		defer redisCache.Close()
		policyCache = redisCache
		log.Printf("Reward policy cache enabled (redis: %s)", cfg.RedisAddr)
	}

	// Initialize services
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration)
	authService := service.NewAuthService(userRepo, studentRepo, tokens)
	studentService := service.NewStudentService(studentRepo, classRepo)
	classService := service.NewClassService(classRepo)
	wordService := service.NewWordService(db, wordRepo)
	curriculumService := service.NewCurriculumService(db, curriculumRepo, wordRepo, cfg.Timezone)
	rewardService := service.NewRewardService(db, rewardRepo, settingsRepo, policyCache, cfg.Timezone)
	testService := service.NewTestService(db, quiz.NewStore(), curriculumService, rewardService, resultRepo, curriculumRepo, wordRepo)
	gameService := service.NewGameService(db, gameRepo, rewardService)
	backupService := service.NewBackupService(db)

	// Seed bootstrap admin account
	if err := authService.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		log.Fatalf("Failed to create bootstrap admin: %v", err)
	}

	// Idle test sessions are swept in the background
	sched := scheduler.New(testService, cfg.SessionIdleTimeout)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Login rate limiting
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer limiter.Stop()

	// Setup routes
	router := handlers.NewRouter(
		handlers.NewMiddleware(authService, limiter),
		handlers.NewAuthHandler(authService, studentService),
		handlers.NewLearnerHandler(curriculumService, testService, rewardService, gameService),
		handlers.NewAdminHandler(handlers.AdminServices{
			Auth:       authService,
			Students:   studentService,
			Classes:    classService,
			Words:      wordService,
			Curriculum: curriculumService,
			Rewards:    rewardService,
			Tests:      testService,
			Backup:     backupService,
		}),
	)

	// Wrap with logging and CORS middleware
	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Accept", "Origin"},
		MaxAge:         86400,
	}).Handler(handlers.Logging(router))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Warning: graceful shutdown failed: %v", err)
	}
}
