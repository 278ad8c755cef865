package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitboss/pkg/domain"
	"pitboss/pkg/logger"
)

type recordingUsageRepo struct {
	mu   sync.Mutex
	rows []*domain.APIUsage
}

func (r *recordingUsageRepo) Create(ctx context.Context, usage *domain.APIUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, usage)
	return nil
}

func TestLoggingWrapperRecordsStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/anything", nil)
	NewLoggingMiddleware(logger.NewNop()).Log(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

// The live session feed upgrades to a websocket behind the full global
// middleware chain, so the wrappers must keep the connection hijackable.
func TestWebsocketUpgradeThroughMiddleware(t *testing.T) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(map[string]string{"type": "session_opened"})
	})

	log := logger.NewNop()
	chain := NewLoggingMiddleware(log).Log(
		NewUsageMiddleware(&recordingUsageRepo{}, log).Record(handler),
	)

	srv := httptest.NewServer(chain)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "session_opened", msg["type"])
}
