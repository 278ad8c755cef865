package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"pitboss/internal/stats"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

// StatsHandler serves bot performance and player statistics.
type StatsHandler struct {
	service *stats.Service
	logger  logger.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(service *stats.Service, log logger.Logger) *StatsHandler {
	return &StatsHandler{service: service, logger: log}
}

// GetSessionBots lists per-bot performance rows for one session.
func (h *StatsHandler) GetSessionBots(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, err := uuid.Parse(vars["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	bots, err := h.service.SessionBots(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to fetch session bots", map[string]interface{}{
			"error":      err.Error(),
			"session_id": sessionID,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch session bots")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"bots":  bots,
		"count": len(bots),
	})
}

// GetBotTotals aggregates one bot's performance across all sessions.
func (h *StatsHandler) GetBotTotals(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]
	if !validator.IsEthAddress(address) {
		h.respondError(w, http.StatusBadRequest, "Invalid bot address")
		return
	}

	totals, err := h.service.BotTotals(r.Context(), address)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Bot not found")
		return
	}

	h.respondJSON(w, http.StatusOK, totals)
}

// GetPlayerStats returns one player's lifetime statistics.
func (h *StatsHandler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]
	if !validator.IsEthAddress(address) {
		h.respondError(w, http.StatusBadRequest, "Invalid player address")
		return
	}

	player, err := h.service.PlayerStats(r.Context(), address)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Player not found")
		return
	}

	h.respondJSON(w, http.StatusOK, player)
}

// GetLeaderboard ranks players by net profit.
func (h *StatsHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	players, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to fetch leaderboard", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

func (h *StatsHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *StatsHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
