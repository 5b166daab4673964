package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api"
	"github.com/maheshrc27/postpilot/internal/api/handlers"
	"github.com/maheshrc27/postpilot/internal/api/middleware"
	job "github.com/maheshrc27/postpilot/internal/jobs"
	"github.com/maheshrc27/postpilot/internal/queue"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/repository/memory"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/robfig/cron"
)

type repositories struct {
	users    repository.UserRepository
	apiKeys  repository.ApiKeyRepository
	brands   repository.BrandRepository
	accounts repository.SocialAccountRepository
	media    repository.MediaAssetRepository
	posts    repository.PostRepository
	history  repository.PostingHistoryRepository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		log.Fatalf("SECRET_KEY must be set")
	}

	var (
		db    *sql.DB
		repos repositories
	)
	if cfg.PostgresURI != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("Database is unreachable: %v", err)
		}
		repos = repositories{
			users:    repository.NewUserRepository(db),
			apiKeys:  repository.NewApiKeyRepository(db),
			brands:   repository.NewBrandRepository(db),
			accounts: repository.NewSocialAccountRepository(db),
			media:    repository.NewMediaAssetRepository(db),
			posts:    repository.NewPostRepository(db),
			history:  repository.NewPostingHistoryRepository(db),
		}
	} else {
		slog.Warn("POSTGRES_URI is not set, using the in-memory store")
		store := memory.NewStore()
		repos = repositories{
			users:    store.Users(),
			apiKeys:  store.ApiKeys(),
			brands:   store.Brands(),
			accounts: store.SocialAccounts(),
			media:    store.MediaAssets(),
			posts:    store.Posts(),
			history:  store.PostingHistory(),
		}
	}

	storage, err := service.NewR2Storage(context.Background(), cfg.R2)
	if err != nil {
		log.Fatalf("Failed to configure media storage: %v", err)
	}

	engine := service.NewStatusEngine(repos.posts)
	resolver := service.NewCredentialResolver(cfg.SecretKey, repos.accounts)
	dispatcher := service.NewWebhookDispatcher(cfg.Publishing)
	publisher := service.NewPublisher(engine, resolver, dispatcher, repos.media, repos.history)
	captions := service.NewCaptionGenerator(cfg.Caption)

	var (
		asynqClient *asynq.Client
		asynqServer *asynq.Server
		enqueuer    service.Enqueuer
	)
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		asynqClient = asynq.NewClient(redisConn)
		enqueuer = queue.NewClient(asynqClient)
		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.Sweep.Concurrency,
		})
	} else {
		slog.Warn("REDIS_URI is not set, scheduled posts rely on the sweep alone")
	}

	authService := service.NewAuthService(*cfg, repos.users)
	userService := service.NewUserService(repos.users, repos.brands, repos.posts, repos.apiKeys)
	apiKeyService := service.NewApiKeyService(repos.apiKeys)
	brandService := service.NewBrandService(repos.brands)
	platformService := service.NewPlatformService(cfg.SecretKey, repos.brands, repos.accounts)
	mediaService := service.NewMediaService(repos.media, storage)
	captionService := service.NewCaptionService(repos.brands, repos.media, captions)
	postService := service.NewPostService(repos.posts, repos.brands, repos.media, repos.history,
		engine, publisher, captions, enqueuer)

	sweepJob := job.NewSweepJob(repos.posts, publisher, cfg.Sweep)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    service.MaxMediaSize + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error(err.Error(), "path", c.Path())
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	api.SetupRoutes(app, api.Handlers{
		Auth:     handlers.NewAuthHandler(*cfg, authService),
		User:     handlers.NewUserHandler(userService),
		ApiKeys:  handlers.NewApiKeyHandler(apiKeyService),
		Brands:   handlers.NewBrandHandler(brandService),
		Accounts: handlers.NewPlatformHandler(platformService),
		Media:    handlers.NewMediaHandler(mediaService, captionService),
		Posts:    handlers.NewPostHandler(postService),
		Sweep:    handlers.NewSweepHandler(sweepJob, cfg.CronSecret),
	}, middleware.NewAuthMiddleware(*cfg, apiKeyService))

	// cron jobs
	c := cron.New()
	if err := c.AddFunc(cfg.Sweep.Schedule, sweepJob.RunScheduled); err != nil {
		log.Fatalf("Invalid SWEEP_SCHEDULE %q: %v", cfg.Sweep.Schedule, err)
	}
	c.Start()

	if asynqServer != nil {
		go func() {
			mux := asynq.NewServeMux()
			queue.NewWorker(repos.posts, publisher).Register(mux)

			log.Println("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	if asynqServer != nil {
		asynqServer.Shutdown()
	}
	if asynqClient != nil {
		asynqClient.Close()
	}
	if db != nil {
		closeDB(db)
	}
	log.Println("Server shutdown complete.")
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}
