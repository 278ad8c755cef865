// Package metrics records operational gauges into the system_metrics table
// and answers queries over them.
package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pitboss/pkg/domain"
	"pitboss/pkg/logger"
)

type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Record writes one metric sample.
func (s *Service) Record(ctx context.Context, name string, value float64, labels domain.Metadata) error {
	metric := &domain.SystemMetric{
		ID:         uuid.New(),
		MetricName: name,
		Value:      value,
		Labels:     labels,
		RecordedAt: time.Now(),
	}
	return s.repo.Record(ctx, metric)
}

// Recent returns samples of one metric inside the window, newest first.
func (s *Service) Recent(ctx context.Context, name string, window time.Duration, limit int) ([]*domain.SystemMetric, error) {
	if window <= 0 {
		window = time.Hour
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.repo.FindRecent(ctx, name, time.Now().Add(-window), limit)
}

// Names lists every metric name seen so far.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	return s.repo.Names(ctx)
}

type Repository interface {
	Record(ctx context.Context, metric *domain.SystemMetric) error
	FindRecent(ctx context.Context, name string, since time.Time, limit int) ([]*domain.SystemMetric, error)
	Names(ctx context.Context) ([]string, error)
}
