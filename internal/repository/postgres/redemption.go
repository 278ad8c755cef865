package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
)

type RedemptionRepository struct {
	db *sqlx.DB
}

func NewRedemptionRepository(db *sqlx.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) Create(ctx context.Context, red *domain.NFTRedemption) error {
	query := `
		INSERT INTO nft_redemptions (
			id, pass_token_id, owner_address, status, art_token_id, tx_hash, failure_reason, requested_at, fulfilled_at, created_at, updated_at
		) VALUES (
			:id, :pass_token_id, :owner_address, :status, :art_token_id, :tx_hash, :failure_reason, :requested_at, :fulfilled_at, :created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, red)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.ErrRedemptionAlreadyExists
		}
		return errors.Wrap(err, "failed to create redemption")
	}
	return nil
}

// Update advances a redemption guarded by its expected current status.
// Zero rows means another operator moved the row first; the caller gets
// ErrInvalidStatusTransition instead of silently overwriting their change.
func (r *RedemptionRepository) Update(ctx context.Context, red *domain.NFTRedemption, from domain.RedemptionStatus) error {
	query := `
		UPDATE nft_redemptions SET
			status = $1,
			art_token_id = $2,
			tx_hash = $3,
			failure_reason = $4,
			fulfilled_at = $5,
			updated_at = NOW()
		WHERE id = $6 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		red.Status, red.ArtTokenID, red.TxHash, red.FailureReason, red.FulfilledAt, red.ID, from)
	if err != nil {
		return errors.Wrap(err, "failed to update redemption")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.ErrInvalidStatusTransition
	}
	return nil
}

func (r *RedemptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.NFTRedemption, error) {
	red := &domain.NFTRedemption{}
	query := `SELECT * FROM nft_redemptions WHERE id = $1`
	err := r.db.GetContext(ctx, red, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrRedemptionNotFound
		}
		return nil, errors.Wrap(err, "failed to find redemption by id")
	}
	return red, nil
}

func (r *RedemptionRepository) FindByPassToken(ctx context.Context, passTokenID int64) (*domain.NFTRedemption, error) {
	red := &domain.NFTRedemption{}
	query := `SELECT * FROM nft_redemptions WHERE pass_token_id = $1`
	err := r.db.GetContext(ctx, red, query, passTokenID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrRedemptionNotFound
		}
		return nil, errors.Wrap(err, "failed to find redemption by pass token")
	}
	return red, nil
}

func (r *RedemptionRepository) FindAll(ctx context.Context, limit, offset int, status *domain.RedemptionStatus) ([]*domain.NFTRedemption, error) {
	var reds []*domain.NFTRedemption
	query := `SELECT * FROM nft_redemptions`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	query += ` ORDER BY requested_at DESC LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	err := r.db.SelectContext(ctx, &reds, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find redemptions")
	}
	return reds, nil
}

func (r *RedemptionRepository) CountByStatus(ctx context.Context, status domain.RedemptionStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM nft_redemptions WHERE status = $1`
	err := r.db.GetContext(ctx, &count, query, status)
	return count, errors.Wrap(err, "failed to count redemptions")
}
