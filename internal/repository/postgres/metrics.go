package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

type MetricsRepository struct {
	db *sqlx.DB
}

func NewMetricsRepository(db *sqlx.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func (r *MetricsRepository) Record(ctx context.Context, metric *domain.SystemMetric) error {
	query := `
		INSERT INTO system_metrics (id, metric_name, value, labels, recorded_at)
		VALUES (:id, :metric_name, :value, :labels, :recorded_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, metric)
	return errors.Wrap(err, "failed to record metric")
}

func (r *MetricsRepository) FindRecent(ctx context.Context, name string, since time.Time, limit int) ([]*domain.SystemMetric, error) {
	var metrics []*domain.SystemMetric
	query := `
		SELECT * FROM system_metrics
		WHERE metric_name = $1 AND recorded_at >= $2
		ORDER BY recorded_at DESC LIMIT $3
	`
	err := r.db.SelectContext(ctx, &metrics, query, name, since, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find recent metrics")
	}
	return metrics, nil
}

func (r *MetricsRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	query := `SELECT DISTINCT metric_name FROM system_metrics ORDER BY metric_name`
	err := r.db.SelectContext(ctx, &names, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list metric names")
	}
	return names, nil
}
