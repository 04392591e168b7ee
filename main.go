package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/auth"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/clickhouse"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/config"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	grpcserver "github.com/Billy-Davies-2/picklewickel-scores/internal/grpc"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/handlers"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/metrics"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/mocks"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/scheduler"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

// historySize is how many events SSE clients can replay after a reconnect.
const historySize = 500

func main() {
	// A .env file is optional
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitWithLevel(cfg.LogLevel)
	logger.Info("Starting PickleWickel scores service", "environment", cfg.Environment, "timezone", cfg.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg)
	defer store.Close()

	if cfg.Database.SeedDir != "" {
		seeded, err := dal.LoadSeedDir(ctx, store, cfg.Database.SeedDir)
		if err != nil {
			logger.Error("Failed to load seed data", "error", err, "dir", cfg.Database.SeedDir)
			log.Fatalf("Failed to load seed data: %v", err)
		}
		logger.Info("Seed data loaded", "collections", seeded)
	}

	upstream, closeUpstream := openEvents(cfg)
	defer closeUpstream()
	ps := pubsub.NewWithUpstream(upstream)

	// Keep recent events so reconnecting SSE clients can catch up
	history := pubsub.NewMemoryBus(historySize)
	go func() {
		for event := range ps.Subscribe() {
			history.Publish(event)
		}
	}()

	svc := service.New(store, ps, service.Options{
		IngestionEnabled: cfg.Ingestion.Enabled,
		WebhookURL:       cfg.Scraper.WebhookURL,
		HTTPClient:       &http.Client{Timeout: cfg.Scraper.Timeout},
		Location:         cfg.Location(),
	})
	if !cfg.Ingestion.Enabled {
		logger.Warn("Ingestion kill switch is on, all writes are rejected")
	}

	api := handlers.NewAPIHandlers(svc, ps).WithReplay(history)

	// Audit sink: ClickHouse in production, in-memory in development
	if cfg.IsDevelopment() {
		sink := mocks.NewMockAuditSink()
		svc.WithAudit(sink)
		api.WithIngestStats(sink)
	} else {
		sink, err := clickhouse.NewAuditSink(ctx, cfg.ClickHouse.Addr, cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password)
		if err != nil {
			logger.Error("Failed to initialize ClickHouse", "error", err, "address", cfg.ClickHouse.Addr)
			log.Fatalf("Failed to initialize ClickHouse: %v", err)
		}
		defer sink.Close()
		logger.Info("Connected to ClickHouse", "address", cfg.ClickHouse.Addr, "database", cfg.ClickHouse.Database)
		svc.WithAudit(sink)
		api.WithIngestStats(sink).WithCheck("clickhouse", sink.Ping)
	}

	authProvider := newAuthProvider(cfg)

	// Start gRPC server in a goroutine
	grpcServer := grpc.NewServer()
	grpcserver.RegisterScoresServer(grpcServer, grpcserver.NewServer(svc, ps))
	go func() {
		lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.Server.GRPCPort)
		if err != nil {
			logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.Server.GRPCPort)
			log.Fatalf("Failed to listen for gRPC: %v", err)
		}
		logger.Info("gRPC server starting", "address", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	var cron *scheduler.Scheduler
	if cfg.Scraper.Schedule != "" {
		cron = scheduler.New(svc, cfg.Scraper.Schedule, cfg.Scraper.Timeout)
		if err := cron.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		logger.Info("Scrape schedule not configured, relying on the cron endpoint")
	}

	mux := http.NewServeMux()

	// Auth routes (public)
	mux.HandleFunc("/auth/login", authProvider.LoginHandler)
	mux.HandleFunc("/auth/callback", authProvider.CallbackHandler)
	mux.HandleFunc("/auth/logout", authProvider.LogoutHandler)

	mux.Handle("GET /metrics", metrics.Handler())

	api.Register(mux, handlers.RouteOptions{
		Auth:           authProvider,
		CronSecret:     cfg.Scraper.CronSecret,
		Limiter:        handlers.NewIPRateLimiter(cfg.Ingestion.RateLimit, cfg.Ingestion.Burst),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	if cron != nil {
		cron.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	history.Close()
	logger.Info("Shutdown complete")
}

// openStore picks the key-value store for cfg.Database.Driver
func openStore(cfg *config.Config) dal.Store {
	switch cfg.Database.Driver {
	case "memory":
		logger.Info("Using in-memory data store")
		return dal.NewMemoryStore()
	case "sqlite":
		store, err := dal.NewSQLiteStore(cfg.Database.SQLiteFile)
		if err != nil {
			logger.Error("Failed to initialize SQLite", "error", err)
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.Database.SQLiteFile)
		return store
	case "postgres":
		if cfg.Database.URL == "" {
			if cfg.IsDevelopment() {
				store, err := mocks.NewMockPostgresStore(cfg.Database.SQLiteFile)
				if err != nil {
					log.Fatalf("Failed to initialize mock Postgres: %v", err)
				}
				return store
			}
			log.Fatal("DATABASE_URL is required for the postgres driver")
		}
		store, err := dal.NewPostgresStore(cfg.Database.URL)
		if err != nil {
			logger.Error("Failed to initialize Postgres", "error", err)
			log.Fatalf("Failed to initialize Postgres: %v", err)
		}
		logger.Info("Connected to Postgres database")
		return store
	default:
		log.Fatalf("Unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", cfg.Database.Driver)
		return nil
	}
}

// openEvents starts embedded NATS in development and connects to the real
// JetStream cluster otherwise.
func openEvents(cfg *config.Config) (pubsub.Upstream, func()) {
	if cfg.IsDevelopment() {
		logger.Info("Starting embedded NATS server for local development")
		embedded, err := pubsub.NewEmbeddedNATSPubSub(pubsub.EmbeddedNATSOptions{
			Port:       0,
			Subject:    cfg.NATS.Subject,
			StreamName: cfg.NATS.StreamName,
		})
		if err != nil {
			logger.Error("Failed to initialize embedded NATS", "error", err)
			log.Fatalf("Failed to initialize embedded NATS: %v", err)
		}
		logger.Info("Embedded NATS server ready", "url", embedded.GetServerURL())
		return embedded, embedded.Close
	}

	logger.Info("Using real NATS JetStream for production")
	nc, err := pubsub.NewNATSPubSub(pubsub.NATSOptions{
		URL:        cfg.NATS.URL,
		Subject:    cfg.NATS.Subject,
		StreamName: cfg.NATS.StreamName,
		MaxAge:     7 * 24 * time.Hour,
	})
	if err != nil {
		logger.Error("Failed to initialize NATS", "error", err)
		log.Fatalf("Failed to initialize NATS: %v", err)
	}
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	return nc, nc.Close
}

func newAuthProvider(cfg *config.Config) auth.AuthProvider {
	if cfg.IsDevelopment() {
		logger.Info("Using mock authentication for local development (no Authentik server required)")
		return auth.NewMockAuth()
	}

	a := cfg.Authentik
	if a.BaseURL == "" || a.ClientID == "" || a.ClientSecret == "" {
		log.Fatal("AUTHENTIK_BASE_URL, AUTHENTIK_CLIENT_ID, and AUTHENTIK_CLIENT_SECRET are required for production")
	}
	logger.Info("Using Authentik", "url", a.BaseURL)
	return auth.NewAuthentikAuth(&auth.AuthentikConfig{
		BaseURL:      a.BaseURL,
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURL:  a.RedirectURL,
	})
}
