package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/config"
	"github.com/boddenberg/eyecare-bfa-go/internal/handler"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/cache"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of a staff password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("store_configured", cfg.StoreConfigured()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.String("clinic_timezone", cfg.ClinicTimezone),
		zap.Int("rate_limit_rps", cfg.RateLimitRPS),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "eyecare-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Services ---
	var svcs handler.Services

	if cfg.StoreConfigured() {
		logger.Info("using Supabase as record store", zap.String("supabase_url", cfg.SupabaseURL))

		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		cb := resilience.NewCircuitBreaker("supabase", logger)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

		store := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)

		optionCache := cache.New[[]string](cfg.CacheTTL)
		defer optionCache.Stop()

		vocabSvc := service.NewVocabularyService(store, optionCache, metrics, logger)
		svcs = handler.Services{
			InPatients: service.NewInPatientService(store, vocabSvc, metrics, cfg.ClinicLocation, logger),
			Vocabulary: vocabSvc,
			Patients:   service.NewPatientService(store, logger),
			Clinical:   service.NewClinicalService(store, vocabSvc, logger),
			Receipts:   service.NewReceiptService(store, vocabSvc, logger),
			Auth:       service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, logger),
			Store:      store,
		}
	} else {
		logger.Warn("record store not configured: SUPABASE_URL is empty, /v1 routes unavailable")
	}

	// --- Router ---
	router := handler.NewRouter(svcs, cfg.RateLimitRPS, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
