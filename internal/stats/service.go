package stats

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"pitboss/pkg/domain"
	"pitboss/pkg/logger"
)

// Service answers read queries over bot performance and player statistics.
type Service struct {
	bots    BotRepository
	players PlayerRepository
	logger  logger.Logger
}

func NewService(bots BotRepository, players PlayerRepository, log logger.Logger) *Service {
	return &Service{
		bots:    bots,
		players: players,
		logger:  log,
	}
}

func (s *Service) SessionBots(ctx context.Context, sessionID uuid.UUID) ([]*domain.BotPerformance, error) {
	return s.bots.FindBySession(ctx, sessionID)
}

func (s *Service) BotTotals(ctx context.Context, address string) (*domain.BotPerformance, error) {
	return s.bots.TotalsByAddress(ctx, strings.ToLower(address))
}

func (s *Service) PlayerStats(ctx context.Context, address string) (*domain.PlayerStats, error) {
	return s.players.FindByAddress(ctx, strings.ToLower(address))
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*domain.PlayerStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.players.Leaderboard(ctx, limit)
}

type BotRepository interface {
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.BotPerformance, error)
	FindBySessionAndAddress(ctx context.Context, sessionID uuid.UUID, address string) (*domain.BotPerformance, error)
	TotalsByAddress(ctx context.Context, address string) (*domain.BotPerformance, error)
}

type PlayerRepository interface {
	FindByAddress(ctx context.Context, address string) (*domain.PlayerStats, error)
	Leaderboard(ctx context.Context, limit int) ([]*domain.PlayerStats, error)
	Count(ctx context.Context) (int, error)
}
