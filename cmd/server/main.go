package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gauntlet/internal/auth"
	"gauntlet/internal/config"
	"gauntlet/internal/domain/repositories"
	"gauntlet/internal/handler"
	"gauntlet/internal/middleware"
	"gauntlet/internal/repository/memory"
	"gauntlet/internal/repository/postgres"
	redisrepo "gauntlet/internal/repository/redis"
	"gauntlet/internal/service/chat"
	"gauntlet/internal/service/chattype"
	"gauntlet/internal/service/conversation"
	"gauntlet/internal/service/media"
	"gauntlet/internal/service/settings"
	"gauntlet/internal/service/upload"
	"gauntlet/internal/service/webhook"
	"gauntlet/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg.Environment, cfg.LogDir, cfg.LogMaxFiles)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	dispatch, err := config.LoadDispatch()
	if err != nil {
		log.Fatalf("Failed to load dispatch config: %v", err)
	}

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"response_fields", dispatch.ResponseFields,
	)

	ctx := context.Background()

	// JWT verifier for Supabase users; without it every caller is a guest
	var jwtVerifier auth.JWTVerifier
	if cfg.SupabaseJWKSURL != "" {
		jwtVerifier, err = auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	} else {
		logger.Warn("SUPABASE_URL not set, only guest sessions are served")
	}

	// User repositories need the database
	var (
		userSettingsRepo repositories.SettingsRepository
		userChatTypeRepo repositories.ChatTypeRepository
		userQueueRepo    repositories.FileQueueRepository
		txManager        repositories.TransactionManager
	)
	if cfg.SupabaseDBURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", pool.Config().MaxConns,
			"min_conns", pool.Config().MinConns,
		)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		userSettingsRepo = postgres.NewSettingsRepository(repoConfig)
		userChatTypeRepo = postgres.NewChatTypeRepository(repoConfig)
		userQueueRepo = postgres.NewFileQueueRepository(repoConfig)
		txManager = postgres.NewTransactionManager(pool, logger)
	} else {
		logger.Warn("SUPABASE_DB_URL not set, signed-in users cannot store settings or chat types")
	}

	// Guest settings: Redis when reachable, otherwise process memory
	var guestSettingsRepo repositories.SettingsRepository = memory.NewSettingsRepository()
	if cfg.RedisURL != "" {
		client, err := redisrepo.Connect(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("redis unavailable, guest settings kept in memory", "error", err)
		} else {
			defer client.Close()
			guestSettingsRepo = redisrepo.NewSettingsRepository(client, redisrepo.DefaultSettingsTTL, logger)
		}
	}

	// Services
	dispatcher := webhook.NewDispatcher(webhook.Options{
		ResponseFields: dispatch.ResponseFields,
		Timeout:        cfg.WebhookTimeout,
		UserAgent:      "gauntlet/1.0",
	}, logger)

	settingsService := settings.NewService(userSettingsRepo, guestSettingsRepo, logger)

	chatTypeRegistry := chattype.NewRegistry(chattype.Options{
		UserRepo:      userChatTypeRepo,
		TxManager:     txManager,
		GuestSeed:     dispatch.GuestChatTypes,
		GuestSettings: guestSettingsRepo,
	}, logger)

	conversations := conversation.NewRegistry(conversation.Options{
		Greeting:     dispatch.Greeting,
		DefaultTitle: dispatch.DefaultTitle,
	}, logger)

	chatService := chat.NewService(conversations, chatTypeRegistry, settingsService, dispatcher, logger)
	mediaService := media.NewService(settingsService, dispatcher, logger)

	uploadPipeline := upload.NewPipeline(upload.Options{
		Storage:     storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket, logger),
		UserQueue:   userQueueRepo,
		GuestQueue:  memory.NewFileQueueRepository(),
		Settings:    settingsService,
		Dispatcher:  dispatcher,
		Validator:   upload.NewValidator(dispatch.FileTypes, cfg.MaxUploadBytes),
		Colors:      dispatch.StoneColors,
		Concurrency: cfg.UploadConcurrency,
	}, logger)

	// Handlers
	handlers := &handler.Handlers{
		Conversations: handler.NewConversationHandler(conversations, chatTypeRegistry, logger),
		Chat:          handler.NewChatHandler(chatService, logger),
		ChatTypes:     handler.NewChatTypeHandler(chatTypeRegistry, logger),
		Settings:      handler.NewSettingsHandler(settingsService, logger),
		Uploads:       handler.NewUploadHandler(uploadPipeline, cfg.MaxUploadBytes*config.MaxFilesPerUpload, cfg.UploadTimeout, logger),
		Media:         handler.NewMediaHandler(mediaService, logger),
	}

	// Setup router
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	handlers.Register(mux)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Identity → Routes
	h = middleware.Identity(jwtVerifier, logger)(h)
	if cfg.Debug {
		h = middleware.RequestLogger(logger)(h)
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.GuestSessionHeader},
		ExposedHeaders:   []string{middleware.GuestSessionHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// WriteTimeout covers a webhook round-trip plus margin.
	// The upload handler extends both deadlines for its own requests.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.WebhookTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt, then drain in-flight requests
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
