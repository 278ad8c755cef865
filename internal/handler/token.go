package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"pitboss/internal/token"
	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

// TokenHandler serves token balance lookups for the casino frontend.
type TokenHandler struct {
	service   *token.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(service *token.Service, val *validator.Validator, log logger.Logger) *TokenHandler {
	return &TokenHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// GetBalances returns token balances for a wallet address. Malformed
// addresses and unknown networks get a 400 rather than an empty payload so
// frontend bugs surface immediately.
func (h *TokenHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	var req token.BalancesRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.GetBalances(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrInvalidAddress):
			h.respondError(w, http.StatusBadRequest, "Invalid wallet address")
		case errors.Is(err, errors.ErrUnsupportedNetwork):
			h.respondError(w, http.StatusBadRequest, "Unsupported network")
		default:
			h.logger.Error("Failed to fetch balances", map[string]interface{}{
				"error":   err.Error(),
				"address": req.Address,
				"network": req.Network,
			})
			h.respondError(w, http.StatusInternalServerError, "Failed to fetch balances")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ListTokens returns the supported token registry, optionally filtered by
// the network query parameter.
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("network"); v != "" {
		network := domain.Network(v)
		tokens := token.SupportedTokens(network)
		if tokens == nil {
			h.respondError(w, http.StatusBadRequest, "Unsupported network")
			return
		}
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"network": network,
			"tokens":  tokens,
		})
		return
	}

	all := make(map[domain.Network][]token.TokenInfo)
	for _, network := range token.SupportedNetworks() {
		all[network] = token.SupportedTokens(network)
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"networks": all})
}

func (h *TokenHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *TokenHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
