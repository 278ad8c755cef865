package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"pitboss/internal/session"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

func newSessionHandler() *SessionHandler {
	service := session.NewService(nil, nil, nil, logger.NewNop())
	return NewSessionHandler(service, validator.New(), logger.NewNop())
}

func TestOpenSessionRejectsUnknownGameType(t *testing.T) {
	h := newSessionHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions",
		bytes.NewBufferString(`{"game_type":"poker"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.OpenSession(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, resp.Fields["GameType"], "Must be one of")
}

func TestOpenSessionRequiresBody(t *testing.T) {
	h := newSessionHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString(""))
	rr := httptest.NewRecorder()
	h.OpenSession(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
