package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"pitboss/internal/metrics"
	"pitboss/internal/repository/postgres"
	"pitboss/pkg/logger"
)

// ChainPinger reports chain liveness. Nil when no RPC is configured.
type ChainPinger interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type SystemHandler struct {
	db          *sqlx.DB
	redisClient *redis.Client
	chain       ChainPinger
	metrics     *metrics.Service
	usageRepo   *postgres.UsageRepository
	logger      logger.Logger
	startTime   time.Time
}

func NewSystemHandler(db *sqlx.DB, redisClient *redis.Client, chain ChainPinger, metricsService *metrics.Service, usageRepo *postgres.UsageRepository, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		db:          db,
		redisClient: redisClient,
		chain:       chain,
		metrics:     metricsService,
		usageRepo:   usageRepo,
		logger:      log,
		startTime:   time.Now(),
	}
}

type ServiceStatus struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"` // operational, degraded, outage
	LastUpdated string  `json:"lastUpdated"`
	Uptime      float64 `json:"uptime"`
	LatencyMs   int64   `json:"latency_ms"`
}

type SystemStatusResponse struct {
	Services []ServiceStatus `json:"services"`
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

func (h *SystemHandler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	services := []ServiceStatus{}

	// 1. Core API (Self)
	services = append(services, ServiceStatus{
		ID:          "core-api",
		Name:        "Analytics API",
		Description: "Casino analytics and support API",
		Status:      "operational",
		LastUpdated: time.Now().Format(time.RFC3339),
		Uptime:      100.0,
		LatencyMs:   0,
	})

	// 2. Database
	dbStatus := "operational"
	dbStart := time.Now()
	err := h.db.Ping()
	dbLatency := time.Since(dbStart).Milliseconds()
	dbUptime := 100.0

	if err != nil {
		dbStatus = "outage"
		dbUptime = 0.0
		h.logger.Error("Database ping failed", map[string]interface{}{"error": err.Error()})
	} else if dbLatency > 200 {
		dbStatus = "degraded"
	}

	services = append(services, ServiceStatus{
		ID:          "database",
		Name:        "PostgreSQL Database",
		Description: "Session and redemption store",
		Status:      dbStatus,
		LastUpdated: time.Now().Format(time.RFC3339),
		Uptime:      dbUptime,
		LatencyMs:   dbLatency,
	})

	// 3. Redis
	redisStatus := "operational"
	redisStart := time.Now()
	err = h.redisClient.Ping(r.Context()).Err()
	redisLatency := time.Since(redisStart).Milliseconds()
	redisUptime := 100.0

	if err != nil {
		redisStatus = "outage"
		redisUptime = 0.0
		h.logger.Error("Redis ping failed", map[string]interface{}{"error": err.Error()})
	} else if redisLatency > 50 {
		redisStatus = "degraded"
	}

	services = append(services, ServiceStatus{
		ID:          "redis",
		Name:        "Redis Cache",
		Description: "Balance cache and rate limiting",
		Status:      redisStatus,
		LastUpdated: time.Now().Format(time.RFC3339),
		Uptime:      redisUptime,
		LatencyMs:   redisLatency,
	})

	// 4. Chain RPC
	chainStatus := "operational"
	chainLatency := int64(0)
	chainUptime := 100.0

	if h.chain == nil {
		chainStatus = "degraded" // static balances only
	} else {
		chainStart := time.Now()
		_, err := h.chain.BlockNumber(r.Context())
		chainLatency = time.Since(chainStart).Milliseconds()
		if err != nil {
			chainStatus = "outage"
			chainUptime = 0.0
			h.logger.Error("Chain ping failed", map[string]interface{}{"error": err.Error()})
		}
	}

	services = append(services, ServiceStatus{
		ID:          "chain-rpc",
		Name:        "Chain RPC",
		Description: "Contract reads and balance lookups",
		Status:      chainStatus,
		LastUpdated: time.Now().Format(time.RFC3339),
		Uptime:      chainUptime,
		LatencyMs:   chainLatency,
	})

	h.respondJSON(w, http.StatusOK, SystemStatusResponse{Services: services})
}

// GetMetrics returns recent samples for one metric name, or the list of
// known names when none is given.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		names, err := h.metrics.Names(r.Context())
		if err != nil {
			h.logger.Error("Failed to list metric names", map[string]interface{}{"error": err.Error()})
			h.respondError(w, http.StatusInternalServerError, "Failed to list metrics")
			return
		}
		h.respondJSON(w, http.StatusOK, map[string]interface{}{"names": names})
		return
	}

	window := time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			window = d
		}
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	samples, err := h.metrics.Recent(r.Context(), name, window, limit)
	if err != nil {
		h.logger.Error("Failed to fetch metrics", map[string]interface{}{
			"error":  err.Error(),
			"metric": name,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":    name,
		"samples": samples,
		"count":   len(samples),
	})
}

// GetUsage summarizes API traffic per route over the requested window.
func (h *SystemHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			window = d
		}
	}
	since := time.Now().Add(-window)

	summaries, err := h.usageRepo.SummarizeSince(r.Context(), since)
	if err != nil {
		h.logger.Error("Failed to summarize usage", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to summarize usage")
		return
	}

	total, err := h.usageRepo.CountSince(r.Context(), since)
	if err != nil {
		h.logger.Warn("Failed to count usage", map[string]interface{}{"error": err.Error()})
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"routes": summaries,
		"total":  total,
		"since":  since.Format(time.RFC3339),
	})
}

func (h *SystemHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func (h *SystemHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
