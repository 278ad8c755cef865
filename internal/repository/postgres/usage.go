package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

type UsageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(ctx context.Context, usage *domain.APIUsage) error {
	query := `
		INSERT INTO api_usage (id, method, route, status_code, latency_ms, caller, request_id, created_at)
		VALUES (:id, :method, :route, :status_code, :latency_ms, :caller, :request_id, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, usage)
	return errors.Wrap(err, "failed to create api usage row")
}

func (r *UsageRepository) FindAll(ctx context.Context, limit, offset int) ([]*domain.APIUsage, error) {
	var rows []*domain.APIUsage
	query := `SELECT * FROM api_usage ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &rows, query, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find api usage")
	}
	return rows, nil
}

// RouteSummary is request count and mean latency for one route.
type RouteSummary struct {
	Method       string  `json:"method" db:"method"`
	Route        string  `json:"route" db:"route"`
	Requests     int64   `json:"requests" db:"requests"`
	ErrorCount   int64   `json:"error_count" db:"error_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms" db:"avg_latency_ms"`
}

func (r *UsageRepository) SummarizeSince(ctx context.Context, since time.Time) ([]*RouteSummary, error) {
	var summaries []*RouteSummary
	query := `
		SELECT
			method,
			route,
			COUNT(*) AS requests,
			COUNT(*) FILTER (WHERE status_code >= 500) AS error_count,
			COALESCE(AVG(latency_ms), 0) AS avg_latency_ms
		FROM api_usage
		WHERE created_at >= $1
		GROUP BY method, route
		ORDER BY requests DESC
	`
	err := r.db.SelectContext(ctx, &summaries, query, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize api usage")
	}
	return summaries, nil
}

func (r *UsageRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM api_usage WHERE created_at >= $1`
	err := r.db.GetContext(ctx, &count, query, since)
	return count, errors.Wrap(err, "failed to count api usage")
}
