// ==============================================================================
// NFT REDEMPTION SERVICE - internal/redemption/service.go
// ==============================================================================
package redemption

import (
	"context"
	"strings"
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
	return &Service{
		repo:   repo,
		logger: log,
	}
}

type RequestRedemptionRequest struct {
	PassTokenID  int64  `json:"pass_token_id" validate:"required,gte=0"`
	OwnerAddress string `json:"owner_address" validate:"required,eth_address"`
}

// RequestRedemption opens the lifecycle for one mint pass. A pass can only be
// redeemed once; the unique constraint on pass_token_id backs this up.
func (s *Service) RequestRedemption(ctx context.Context, req *RequestRedemptionRequest) (*domain.NFTRedemption, error) {
	now := time.Now()
	red := &domain.NFTRedemption{
		ID:           uuid.New(),
		PassTokenID:  req.PassTokenID,
		OwnerAddress: strings.ToLower(req.OwnerAddress),
		Status:       domain.RedemptionStatusRequested,
		RequestedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, red); err != nil {
		return nil, err
	}

	s.logger.Info("Redemption requested", map[string]interface{}{
		"redemption_id": red.ID,
		"pass_token_id": red.PassTokenID,
		"owner":         red.OwnerAddress,
	})
	return red, nil
}

// StartProcessing moves a redemption to processing.
func (s *Service) StartProcessing(ctx context.Context, id uuid.UUID) (*domain.NFTRedemption, error) {
	return s.transition(ctx, id, domain.RedemptionStatusProcessing, func(red *domain.NFTRedemption) {
		red.FailureReason = nil
	})
}

type FulfillRequest struct {
	RedemptionID uuid.UUID `json:"redemption_id" validate:"required"`
	ArtTokenID   int64     `json:"art_token_id" validate:"required,gte=0"`
	TxHash       string    `json:"tx_hash" validate:"required,len=66,startswith=0x"`
}

// Fulfill records the final art token minted for the pass.
func (s *Service) Fulfill(ctx context.Context, req *FulfillRequest) (*domain.NFTRedemption, error) {
	return s.transition(ctx, req.RedemptionID, domain.RedemptionStatusFulfilled, func(red *domain.NFTRedemption) {
		now := time.Now()
		artID := req.ArtTokenID
		tx := strings.ToLower(req.TxHash)
		red.ArtTokenID = &artID
		red.TxHash = &tx
		red.FulfilledAt = &now
	})
}

type FailRequest struct {
	RedemptionID uuid.UUID `json:"redemption_id" validate:"required"`
	Reason       string    `json:"reason" validate:"required,max=500"`
}

// Fail marks a redemption failed with an operator-visible reason.
func (s *Service) Fail(ctx context.Context, req *FailRequest) (*domain.NFTRedemption, error) {
	return s.transition(ctx, req.RedemptionID, domain.RedemptionStatusFailed, func(red *domain.NFTRedemption) {
		reason := req.Reason
		red.FailureReason = &reason
	})
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to domain.RedemptionStatus, apply func(*domain.NFTRedemption)) (*domain.NFTRedemption, error) {
	red, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := red.Status
	if err := ValidateTransition(from, to); err != nil {
		s.logger.Warn("Redemption transition rejected", map[string]interface{}{
			"redemption_id": id,
			"from":          from,
			"to":            to,
		})
		return nil, err
	}

	red.Status = to
	red.UpdatedAt = time.Now()
	apply(red)

	// The repository re-checks the from status inside the UPDATE, so a
	// concurrent transition loses here instead of overwriting the winner.
	if err := s.repo.Update(ctx, red, from); err != nil {
		return nil, err
	}

	s.logger.Info("Redemption status changed", map[string]interface{}{
		"redemption_id": red.ID,
		"pass_token_id": red.PassTokenID,
		"from":          from,
		"to":            to,
	})
	return red, nil
}

func (s *Service) GetRedemption(ctx context.Context, id uuid.UUID) (*domain.NFTRedemption, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetByPassToken(ctx context.Context, passTokenID int64) (*domain.NFTRedemption, error) {
	return s.repo.FindByPassToken(ctx, passTokenID)
}

func (s *Service) ListRedemptions(ctx context.Context, limit, offset int, status *domain.RedemptionStatus) ([]*domain.NFTRedemption, error) {
	return s.repo.FindAll(ctx, limit, offset, status)
}

// Backlog counts redemptions still waiting on fulfillment.
func (s *Service) Backlog(ctx context.Context) (int, error) {
	requested, err := s.repo.CountByStatus(ctx, domain.RedemptionStatusRequested)
	if err != nil {
		return 0, err
	}
	processing, err := s.repo.CountByStatus(ctx, domain.RedemptionStatusProcessing)
	if err != nil {
		return 0, err
	}
	return requested + processing, nil
}

type Repository interface {
	Create(ctx context.Context, red *domain.NFTRedemption) error
	Update(ctx context.Context, red *domain.NFTRedemption, from domain.RedemptionStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.NFTRedemption, error)
	FindByPassToken(ctx context.Context, passTokenID int64) (*domain.NFTRedemption, error)
	FindAll(ctx context.Context, limit, offset int, status *domain.RedemptionStatus) ([]*domain.NFTRedemption, error)
	CountByStatus(ctx context.Context, status domain.RedemptionStatus) (int, error)
}
