// Package handler provides HTTP handlers for the pitboss analytics API.
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"pitboss/internal/session"
	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

// SessionHandler manages game session endpoints.
type SessionHandler struct {
	service   *session.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(service *session.Service, val *validator.Validator, log logger.Logger) *SessionHandler {
	return &SessionHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// OpenSession starts a new betting round.
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req session.OpenSessionRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
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

	sess, err := h.service.OpenSession(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to open session", map[string]interface{}{
			"error":     err.Error(),
			"game_type": req.GameType,
		})
		h.respondError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	h.respondJSON(w, http.StatusCreated, sess)
}

// GetSession returns a session by ID.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, err := uuid.Parse(vars["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	sess, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	h.respondJSON(w, http.StatusOK, sess)
}

// GetSessionByCode returns a session by its human-readable code.
func (h *SessionHandler) GetSessionByCode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	sess, err := h.service.GetSessionByCode(r.Context(), vars["code"])
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	h.respondJSON(w, http.StatusOK, sess)
}

// ListSessions lists sessions with optional status filter and paging.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r, 50)

	var status *domain.SessionStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := domain.SessionStatus(v)
		if !st.Valid() {
			h.respondError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		status = &st
	}

	sessions, total, err := h.service.ListSessions(r.Context(), limit, offset, status)
	if err != nil {
		h.logger.Error("Failed to list sessions", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// RecordBet folds one settled bet into the session.
func (h *SessionHandler) RecordBet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, err := uuid.Parse(vars["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req session.RecordBetRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SessionID = sessionID

	if fields := h.validator.ValidateStructured(&req); fields != nil {
		h.respondValidation(w, fields)
		return
	}

	sess, err := h.service.RecordBet(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrSessionNotFound):
			h.respondError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, errors.ErrSessionNotActive):
			h.respondError(w, http.StatusConflict, "Session is not active")
		default:
			h.logger.Error("Failed to record bet", map[string]interface{}{
				"error":      err.Error(),
				"session_id": sessionID,
			})
			h.respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.respondJSON(w, http.StatusOK, sess)
}

// SettleSession closes the round and freezes its totals.
func (h *SessionHandler) SettleSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, err := uuid.Parse(vars["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	req := session.SettleSessionRequest{SessionID: sessionID}
	if r.ContentLength > 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.SessionID = sessionID
	}

	sess, err := h.service.SettleSession(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrSessionNotFound):
			h.respondError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, errors.ErrSessionAlreadySettled):
			h.respondError(w, http.StatusConflict, "Session already settled")
		default:
			h.logger.Error("Failed to settle session", map[string]interface{}{
				"error":      err.Error(),
				"session_id": sessionID,
			})
			h.respondError(w, http.StatusInternalServerError, "Failed to settle session")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, sess)
}

func paging(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func (h *SessionHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *SessionHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *SessionHandler) respondValidation(w http.ResponseWriter, fields map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "Validation failed",
		"fields": fields,
	})
}
