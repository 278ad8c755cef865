package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pitboss/pkg/domain"
	"pitboss/pkg/logger"
)

// UsageRepository persists per-request usage rows.
type UsageRepository interface {
	Create(ctx context.Context, usage *domain.APIUsage) error
}

// UsageMiddleware records every API request into the api_usage table. Writes
// happen off the request path so a slow database never delays responses.
type UsageMiddleware struct {
	repo   UsageRepository
	logger logger.Logger
}

// NewUsageMiddleware creates a new UsageMiddleware.
func NewUsageMiddleware(repo UsageRepository, log logger.Logger) *UsageMiddleware {
	return &UsageMiddleware{repo: repo, logger: log}
}

// Record wraps handlers with asynchronous usage accounting.
func (m *UsageMiddleware) Record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped, ok := w.(*responseWriter)
		if !ok {
			wrapped = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		}

		next.ServeHTTP(wrapped, r)

		// Health checks would drown out real traffic.
		if r.URL.Path == "/health" {
			return
		}

		row := &domain.APIUsage{
			ID:         uuid.New(),
			Method:     r.Method,
			Route:      r.URL.Path,
			StatusCode: wrapped.statusCode,
			LatencyMs:  time.Since(start).Milliseconds(),
			Caller:     r.RemoteAddr,
			CreatedAt:  time.Now(),
		}
		if reqID, ok := RequestIDFromContext(r.Context()); ok {
			row.RequestID = reqID
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := m.repo.Create(ctx, row); err != nil {
				m.logger.Error("Failed to record api usage", map[string]interface{}{
					"error": err.Error(),
					"route": row.Route,
				})
			}
		}()
	})
}
