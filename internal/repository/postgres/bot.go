package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

type BotRepository struct {
	db *sqlx.DB
}

func NewBotRepository(db *sqlx.DB) *BotRepository {
	return &BotRepository{db: db}
}

// Upsert inserts the per-session row for a bot, or folds the delta into the
// existing one. net_profit stays won - lost by construction.
func (r *BotRepository) Upsert(ctx context.Context, perf *domain.BotPerformance) error {
	query := `
		INSERT INTO bot_performance (
			id, session_id, bot_name, bot_address, bets_placed, wagered, won, lost, net_profit, created_at, updated_at
		) VALUES (
			:id, :session_id, :bot_name, :bot_address, :bets_placed, :wagered, :won, :lost, :net_profit, :created_at, :updated_at
		)
		ON CONFLICT (session_id, bot_address) DO UPDATE SET
			bets_placed = bot_performance.bets_placed + EXCLUDED.bets_placed,
			wagered = bot_performance.wagered + EXCLUDED.wagered,
			won = bot_performance.won + EXCLUDED.won,
			lost = bot_performance.lost + EXCLUDED.lost,
			net_profit = bot_performance.net_profit + EXCLUDED.net_profit,
			updated_at = NOW()
	`
	_, err := r.db.NamedExecContext(ctx, query, perf)
	return errors.Wrap(err, "failed to upsert bot performance")
}

func (r *BotRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.BotPerformance, error) {
	var perfs []*domain.BotPerformance
	query := `SELECT * FROM bot_performance WHERE session_id = $1 ORDER BY net_profit DESC`
	err := r.db.SelectContext(ctx, &perfs, query, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find bot performance by session")
	}
	return perfs, nil
}

func (r *BotRepository) FindBySessionAndAddress(ctx context.Context, sessionID uuid.UUID, address string) (*domain.BotPerformance, error) {
	perf := &domain.BotPerformance{}
	query := `SELECT * FROM bot_performance WHERE session_id = $1 AND bot_address = $2`
	err := r.db.GetContext(ctx, perf, query, sessionID, address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrBotNotFound
		}
		return nil, errors.Wrap(err, "failed to find bot performance")
	}
	return perf, nil
}

// TotalsByAddress sums one bot's rows across all sessions.
func (r *BotRepository) TotalsByAddress(ctx context.Context, address string) (*domain.BotPerformance, error) {
	perf := &domain.BotPerformance{}
	query := `
		SELECT
			COALESCE(MIN(bot_name), '') AS bot_name,
			$1 AS bot_address,
			COALESCE(SUM(bets_placed), 0) AS bets_placed,
			COALESCE(SUM(wagered), 0) AS wagered,
			COALESCE(SUM(won), 0) AS won,
			COALESCE(SUM(lost), 0) AS lost,
			COALESCE(SUM(net_profit), 0) AS net_profit
		FROM bot_performance WHERE bot_address = $1
	`
	err := r.db.GetContext(ctx, perf, query, address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to total bot performance")
	}
	if perf.BetsPlaced == 0 && perf.Wagered.Equal(decimal.Zero) {
		return nil, errors.ErrBotNotFound
	}
	return perf, nil
}
