package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Apply folds one bet into a player's lifetime row, creating it on first
// sight. sessions_played only advances when the session changes.
func (r *PlayerRepository) Apply(ctx context.Context, stats *domain.PlayerStats) error {
	query := `
		INSERT INTO player_stats (
			id, player_address, last_session_id, sessions_played, bets_placed, total_wagered, total_won, net_profit, biggest_win, last_seen_at, created_at, updated_at
		) VALUES (
			:id, :player_address, :last_session_id, :sessions_played, :bets_placed, :total_wagered, :total_won, :net_profit, :biggest_win, :last_seen_at, :created_at, :updated_at
		)
		ON CONFLICT (player_address) DO UPDATE SET
			sessions_played = player_stats.sessions_played + CASE
				WHEN player_stats.last_session_id IS DISTINCT FROM EXCLUDED.last_session_id THEN 1
				ELSE 0
			END,
			last_session_id = EXCLUDED.last_session_id,
			bets_placed = player_stats.bets_placed + EXCLUDED.bets_placed,
			total_wagered = player_stats.total_wagered + EXCLUDED.total_wagered,
			total_won = player_stats.total_won + EXCLUDED.total_won,
			net_profit = player_stats.net_profit + EXCLUDED.net_profit,
			biggest_win = GREATEST(player_stats.biggest_win, EXCLUDED.biggest_win),
			last_seen_at = EXCLUDED.last_seen_at,
			updated_at = NOW()
	`
	_, err := r.db.NamedExecContext(ctx, query, stats)
	return errors.Wrap(err, "failed to apply player stats")
}

func (r *PlayerRepository) FindByAddress(ctx context.Context, address string) (*domain.PlayerStats, error) {
	stats := &domain.PlayerStats{}
	query := `SELECT * FROM player_stats WHERE player_address = $1`
	err := r.db.GetContext(ctx, stats, query, address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrPlayerNotFound
		}
		return nil, errors.Wrap(err, "failed to find player stats")
	}
	return stats, nil
}

func (r *PlayerRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.PlayerStats, error) {
	var stats []*domain.PlayerStats
	query := `SELECT * FROM player_stats ORDER BY net_profit DESC LIMIT $1`
	err := r.db.SelectContext(ctx, &stats, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load leaderboard")
	}
	return stats, nil
}

func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM player_stats`
	err := r.db.GetContext(ctx, &count, query)
	return count, errors.Wrap(err, "failed to count players")
}
