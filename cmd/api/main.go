package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bali7319/marketplace-core/internal/application"
	"github.com/bali7319/marketplace-core/internal/infrastructure/api"
	"github.com/bali7319/marketplace-core/internal/infrastructure/encryption"
	"github.com/bali7319/marketplace-core/internal/infrastructure/lock"
	"github.com/bali7319/marketplace-core/internal/infrastructure/marketplace"
	"github.com/bali7319/marketplace-core/internal/infrastructure/metrics"
	securitymiddleware "github.com/bali7319/marketplace-core/internal/infrastructure/middleware"
	"github.com/bali7319/marketplace-core/internal/infrastructure/repository"
	"github.com/bali7319/marketplace-core/internal/ports"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	ctx := context.Background()

	// Get encryption key
	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY environment variable is required")
	}
	vault, err := encryption.NewService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Storage: MongoDB when configured, otherwise a local JSON file store
	var (
		connectionRepo ports.ConnectionRepository
		catalogRepo    ports.CatalogRepository
	)
	if mongoURI := os.Getenv("MONGODB_URI"); mongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(ctx)

		db := client.Database(envOr("MONGODB_DATABASE", "marketplace"))
		connectionRepo, err = repository.NewMongoConnectionRepository(ctx, db)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize connection repository")
		}
		catalogRepo = repository.NewMongoCatalogRepository(db)
		logger.Info().Msg("Using MongoDB storage")
	} else {
		store, err := repository.NewFileStore(envOr("MARKETPLACE_STORE_PATH", "data/marketplace-store.json"))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open file store")
		}
		connectionRepo = store
		catalogRepo = store
		logger.Info().Msg("Using file storage (set MONGODB_URI for MongoDB)")
	}

	// Sync lock: Redis when configured so replicas exclude each other,
	// otherwise in-process
	var locker ports.ConnLocker = lock.NewMemoryLocker()
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		locker = lock.NewRedisLocker(redis.NewClient(opts), lock.DefaultLockTTL, logger)
		logger.Info().Msg("Using Redis sync locks")
	}

	// Initialize application services
	connectionService := application.NewConnectionService(connectionRepo, vault, logger)
	syncService := application.NewSyncService(connectionService, catalogRepo, marketplace.NewRegistry(), locker, logger)
	ingestService := application.NewIngestService(connectionService, syncService, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	handler := api.NewHandler(connectionService, syncService, ingestService, catalogRepo, m, logger)

	agentAuth := securitymiddleware.AgentAuthMiddleware(os.Getenv("MARKETPLACE_AGENT_TOKEN"), logger)
	adminAuth := securitymiddleware.AdminAuthMiddleware(os.Getenv("ADMIN_SESSION_SECRET"), logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Agent and admin surfaces
	r.Mount("/", handler.Routes(agentAuth, adminAuth))

	port := envOr("PORT", "8080")
	logger.Info().Str("port", port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
