package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.GameSession) error {
	query := `
		INSERT INTO game_sessions (
			id, session_code, game_type, status, total_bets, total_wagered, total_paid, house_edge, chain_block, metadata, started_at, created_at, updated_at
		) VALUES (
			:id, :session_code, :game_type, :status, :total_bets, :total_wagered, :total_paid, :house_edge, :chain_block, :metadata, :started_at, :created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, session)
	return errors.Wrap(err, "failed to create game session")
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.GameSession, error) {
	session := &domain.GameSession{}
	query := `SELECT * FROM game_sessions WHERE id = $1`
	err := r.db.GetContext(ctx, session, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "failed to find session by id")
	}
	return session, nil
}

func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*domain.GameSession, error) {
	session := &domain.GameSession{}
	query := `SELECT * FROM game_sessions WHERE session_code = $1`
	err := r.db.GetContext(ctx, session, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "failed to find session by code")
	}
	return session, nil
}

func (r *SessionRepository) FindAll(ctx context.Context, limit, offset int, status *domain.SessionStatus) ([]*domain.GameSession, error) {
	var sessions []*domain.GameSession
	query := `SELECT * FROM game_sessions`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	query += ` ORDER BY started_at DESC LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find sessions")
	}
	return sessions, nil
}

func (r *SessionRepository) Count(ctx context.Context, status *domain.SessionStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM game_sessions`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	err := r.db.GetContext(ctx, &count, query, args...)
	return count, errors.Wrap(err, "failed to count sessions")
}

// RecordBet folds one bet into the session totals and recomputes the house
// edge in a single statement. Only active sessions accept bets.
func (r *SessionRepository) RecordBet(ctx context.Context, id uuid.UUID, wagered, paid decimal.Decimal) error {
	query := `
		UPDATE game_sessions SET
			total_bets = total_bets + 1,
			total_wagered = total_wagered + $1,
			total_paid = total_paid + $2,
			house_edge = CASE
				WHEN total_wagered + $1 = 0 THEN 0
				ELSE (total_wagered + $1 - total_paid - $2) / (total_wagered + $1)
			END,
			updated_at = NOW()
		WHERE id = $3 AND status = 'active'
	`
	result, err := r.db.ExecContext(ctx, query, wagered, paid, id)
	if err != nil {
		return errors.Wrap(err, "failed to record bet")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.ErrSessionNotActive
	}
	return nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.SessionStatus) error {
	query := `UPDATE game_sessions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return errors.Wrap(err, "failed to update session status")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.ErrSessionNotActive
	}
	return nil
}

func (r *SessionRepository) MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time, chainBlock *int64) error {
	query := `
		UPDATE game_sessions SET
			status = 'settled',
			settled_at = $1,
			chain_block = COALESCE($2, chain_block),
			updated_at = NOW()
		WHERE id = $3 AND status = 'settling'
	`
	result, err := r.db.ExecContext(ctx, query, settledAt, chainBlock, id)
	if err != nil {
		return errors.Wrap(err, "failed to mark session settled")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.ErrSessionAlreadySettled
	}
	return nil
}
