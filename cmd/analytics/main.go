// ==============================================================================
// ANALYTICS SERVICE MAIN - cmd/analytics/main.go
// ==============================================================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"pitboss/internal/chain"
	"pitboss/internal/handler"
	"pitboss/internal/metrics"
	"pitboss/internal/middleware"
	"pitboss/internal/redemption"
	"pitboss/internal/repository/postgres"
	"pitboss/internal/session"
	"pitboss/internal/stats"
	"pitboss/internal/token"
	"pitboss/pkg/cache"
	"pitboss/pkg/config"
	"pitboss/pkg/domain"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

func main() {
	cfg := config.Load()
	log := logger.New("analytics-service")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Starting Analytics Service", map[string]interface{}{
		"port":    cfg.Server.Port,
		"network": cfg.Chain.Network,
	})

	// Database connection
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Info("Database connected", nil)

	// Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Redis connected", nil)

	// Chain RPC is optional. Without it token balances fall back to the
	// static development payload.
	var chainClient *chain.Client
	if cfg.Chain.RPCURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		chainClient, err = chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.CallTimeout)
		cancel()
		if err != nil {
			log.Warn("Chain RPC unreachable, serving static balances", map[string]interface{}{
				"rpc_url": cfg.Chain.RPCURL,
				"error":   err.Error(),
			})
			chainClient = nil
		} else {
			defer chainClient.Close()
			log.Info("Chain RPC connected", map[string]interface{}{"rpc_url": cfg.Chain.RPCURL})
		}
	}

	// Initialize repositories
	sessionRepo := postgres.NewSessionRepository(db)
	botRepo := postgres.NewBotRepository(db)
	playerRepo := postgres.NewPlayerRepository(db)
	redemptionRepo := postgres.NewRedemptionRepository(db)
	metricsRepo := postgres.NewMetricsRepository(db)
	usageRepo := postgres.NewUsageRepository(db)

	// Initialize services
	sessionService := session.NewService(sessionRepo, botRepo, playerRepo, log)
	statsService := stats.NewService(botRepo, playerRepo, log)
	redemptionService := redemption.NewService(redemptionRepo, log)
	metricsService := metrics.NewService(metricsRepo, log)

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("Failed to initialize cache", map[string]interface{}{"error": err.Error()})
	}
	var reader token.ChainReader
	if chainClient != nil {
		reader = chainClient
	}
	tokenService := token.NewService(reader, domain.Network(cfg.Chain.Network), redisCache, cfg.Chain.BalanceCacheTTL, log)

	// Background gauges: session/redemption counts every collector tick.
	collector := metrics.NewCollector(metricsService, 30*time.Second, logger.WithField(log, "component", "collector"))
	collector.RegisterSampler("analytics", metrics.SamplerFunc(func(ctx context.Context) (map[string]float64, error) {
		active := domain.SessionStatusActive
		activeCount, err := sessionRepo.Count(ctx, &active)
		if err != nil {
			return nil, err
		}
		backlog, err := redemptionService.Backlog(ctx)
		if err != nil {
			return nil, err
		}
		players, err := playerRepo.Count(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]float64{
			"sessions_active":    float64(activeCount),
			"redemption_backlog": float64(backlog),
			"players_total":      float64(players),
		}, nil
	}))
	collector.Start()
	defer collector.Stop()

	// Initialize handlers
	val := validator.New()
	sessionHandler := handler.NewSessionHandler(sessionService, val, log)
	statsHandler := handler.NewStatsHandler(statsService, log)
	redemptionHandler := handler.NewRedemptionHandler(redemptionService, val, log)
	tokenHandler := handler.NewTokenHandler(tokenService, val, log)
	liveHandler := handler.NewLiveHandler(sessionService, log)

	var pinger handler.ChainPinger
	if chainClient != nil {
		pinger = chainClient
	}
	systemHandler := handler.NewSystemHandler(db, redisClient, pinger, metricsService, usageRepo, log)

	// Setup router
	r := mux.NewRouter()

	// Middleware
	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.NewUsageMiddleware(usageRepo, log).Record)
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB global cap
	r.Use(middleware.NewRateLimiter(redisClient, 120, time.Minute).Limit)

	authMW := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Routes
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/ready", readyCheck(db)).Methods("GET")

	// Public token balance routes. The /api/coinbase path is kept for the
	// frontend's existing fetch calls.
	r.HandleFunc("/api/coinbase/token-balances", tokenHandler.GetBalances).Methods("POST")
	r.HandleFunc("/api/coinbase/token-balances", tokenHandler.ListTokens).Methods("GET")
	r.HandleFunc("/api/v1/tokens/balances", tokenHandler.GetBalances).Methods("POST")
	r.HandleFunc("/api/v1/tokens", tokenHandler.ListTokens).Methods("GET")

	// Public read routes
	r.HandleFunc("/api/v1/sessions/live", liveHandler.Stream).Methods("GET")
	r.HandleFunc("/api/v1/system/status", systemHandler.GetSystemStatus).Methods("GET")

	// Protected routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW.Authenticate)
	api.Use(middleware.NewRateLimiter(redisClient, 80, time.Minute).Limit)

	api.HandleFunc("/sessions", sessionHandler.OpenSession).Methods("POST")
	api.HandleFunc("/sessions", sessionHandler.ListSessions).Methods("GET")
	api.HandleFunc("/sessions/code/{code}", sessionHandler.GetSessionByCode).Methods("GET")
	api.HandleFunc("/sessions/{id}", sessionHandler.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/bets", sessionHandler.RecordBet).Methods("POST")
	api.HandleFunc("/sessions/{id}/settle", sessionHandler.SettleSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/bots", statsHandler.GetSessionBots).Methods("GET")

	api.HandleFunc("/bots/{address}", statsHandler.GetBotTotals).Methods("GET")
	api.HandleFunc("/players/leaderboard", statsHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/players/{address}", statsHandler.GetPlayerStats).Methods("GET")

	api.HandleFunc("/redemptions", redemptionHandler.RequestRedemption).Methods("POST")
	api.HandleFunc("/redemptions", redemptionHandler.ListRedemptions).Methods("GET")
	api.HandleFunc("/redemptions/backlog", redemptionHandler.GetBacklog).Methods("GET")
	api.HandleFunc("/redemptions/pass/{tokenID}", redemptionHandler.GetByPassToken).Methods("GET")
	api.HandleFunc("/redemptions/{id}", redemptionHandler.GetRedemption).Methods("GET")
	api.HandleFunc("/redemptions/{id}/process", redemptionHandler.StartProcessing).Methods("POST")
	api.HandleFunc("/redemptions/{id}/fulfill", redemptionHandler.Fulfill).Methods("POST")
	api.HandleFunc("/redemptions/{id}/fail", redemptionHandler.Fail).Methods("POST")

	api.HandleFunc("/system/metrics", systemHandler.GetMetrics).Methods("GET")
	api.HandleFunc("/system/usage", systemHandler.GetUsage).Methods("GET")

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Analytics service started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down analytics service...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Analytics service forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Analytics service stopped gracefully", nil)
}

func readyCheck(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"database unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready","service":"analytics"}`))
	}
}
