package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"pitboss/internal/redemption"
	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

// RedemptionHandler manages mint pass redemption endpoints.
type RedemptionHandler struct {
	service   *redemption.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewRedemptionHandler creates a RedemptionHandler.
func NewRedemptionHandler(service *redemption.Service, val *validator.Validator, log logger.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// RequestRedemption opens the redemption lifecycle for one mint pass.
func (h *RedemptionHandler) RequestRedemption(w http.ResponseWriter, r *http.Request) {
	var req redemption.RequestRedemptionRequest

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

	if fields := h.validator.ValidateStructured(&req); fields != nil {
		h.respondValidation(w, fields)
		return
	}

	red, err := h.service.RequestRedemption(r.Context(), &req)
	if err != nil {
		if errors.Is(err, errors.ErrRedemptionAlreadyExists) {
			h.respondError(w, http.StatusConflict, "Pass token already has a redemption")
			return
		}
		h.logger.Error("Failed to request redemption", map[string]interface{}{
			"error":         err.Error(),
			"pass_token_id": req.PassTokenID,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to request redemption")
		return
	}

	h.respondJSON(w, http.StatusCreated, red)
}

// StartProcessing moves a redemption to the processing state.
func (h *RedemptionHandler) StartProcessing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.redemptionID(w, r)
	if !ok {
		return
	}

	red, err := h.service.StartProcessing(r.Context(), id)
	if err != nil {
		h.respondTransitionError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, red)
}

// Fulfill records the final art token minted for the pass.
func (h *RedemptionHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	id, ok := h.redemptionID(w, r)
	if !ok {
		return
	}

	var req redemption.FulfillRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.RedemptionID = id

	if fields := h.validator.ValidateStructured(&req); fields != nil {
		h.respondValidation(w, fields)
		return
	}

	red, err := h.service.Fulfill(r.Context(), &req)
	if err != nil {
		h.respondTransitionError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, red)
}

// Fail marks a redemption failed with an operator-visible reason.
func (h *RedemptionHandler) Fail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.redemptionID(w, r)
	if !ok {
		return
	}

	var req redemption.FailRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.RedemptionID = id

	if fields := h.validator.ValidateStructured(&req); fields != nil {
		h.respondValidation(w, fields)
		return
	}

	red, err := h.service.Fail(r.Context(), &req)
	if err != nil {
		h.respondTransitionError(w, err, id)
		return
	}

	h.respondJSON(w, http.StatusOK, red)
}

// GetRedemption returns a redemption by ID.
func (h *RedemptionHandler) GetRedemption(w http.ResponseWriter, r *http.Request) {
	id, ok := h.redemptionID(w, r)
	if !ok {
		return
	}

	red, err := h.service.GetRedemption(r.Context(), id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Redemption not found")
		return
	}

	h.respondJSON(w, http.StatusOK, red)
}

// GetByPassToken returns the redemption attached to a mint pass token.
func (h *RedemptionHandler) GetByPassToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tokenID, err := strconv.ParseInt(vars["tokenID"], 10, 64)
	if err != nil || tokenID < 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid pass token ID")
		return
	}

	red, err := h.service.GetByPassToken(r.Context(), tokenID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Redemption not found")
		return
	}

	h.respondJSON(w, http.StatusOK, red)
}

// ListRedemptions lists redemptions with optional status filter and paging.
func (h *RedemptionHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r, 50)

	var status *domain.RedemptionStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := domain.RedemptionStatus(v)
		if !st.Valid() {
			h.respondError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		status = &st
	}

	redemptions, err := h.service.ListRedemptions(r.Context(), limit, offset, status)
	if err != nil {
		h.logger.Error("Failed to list redemptions", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to list redemptions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"redemptions": redemptions,
		"count":       len(redemptions),
		"limit":       limit,
		"offset":      offset,
	})
}

// GetBacklog reports how many redemptions still wait on fulfillment.
func (h *RedemptionHandler) GetBacklog(w http.ResponseWriter, r *http.Request) {
	backlog, err := h.service.Backlog(r.Context())
	if err != nil {
		h.logger.Error("Failed to count backlog", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to count backlog")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]int{"backlog": backlog})
}

func (h *RedemptionHandler) redemptionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid redemption ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *RedemptionHandler) respondTransitionError(w http.ResponseWriter, err error, id uuid.UUID) {
	switch {
	case errors.Is(err, errors.ErrRedemptionNotFound):
		h.respondError(w, http.StatusNotFound, "Redemption not found")
	case errors.Is(err, errors.ErrInvalidStatusTransition):
		h.respondError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Redemption transition failed", map[string]interface{}{
			"error":         err.Error(),
			"redemption_id": id,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to update redemption")
	}
}

func (h *RedemptionHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *RedemptionHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *RedemptionHandler) respondValidation(w http.ResponseWriter, fields map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "Validation failed",
		"fields": fields,
	})
}
