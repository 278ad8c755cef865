package redemption

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, red *domain.NFTRedemption) error {
	args := m.Called(ctx, red)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, red *domain.NFTRedemption, from domain.RedemptionStatus) error {
	args := m.Called(ctx, red, from)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.NFTRedemption, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NFTRedemption), args.Error(1)
}

func (m *MockRepository) FindByPassToken(ctx context.Context, passTokenID int64) (*domain.NFTRedemption, error) {
	args := m.Called(ctx, passTokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NFTRedemption), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, limit, offset int, status *domain.RedemptionStatus) ([]*domain.NFTRedemption, error) {
	args := m.Called(ctx, limit, offset, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NFTRedemption), args.Error(1)
}

func (m *MockRepository) CountByStatus(ctx context.Context, status domain.RedemptionStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// --- Tests ---

func TestRequestRedemption(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(red *domain.NFTRedemption) bool {
		return red.PassTokenID == 42 &&
			red.OwnerAddress == "0x70997970c51812dc3a010c7d01b50e0d17dc79c8" &&
			red.Status == domain.RedemptionStatusRequested
	})).Return(nil)

	red, err := service.RequestRedemption(ctx, &RequestRedemptionRequest{
		PassTokenID:  42,
		OwnerAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionStatusRequested, red.Status)
	repo.AssertExpectations(t)
}

func TestRequestRedemptionDuplicatePass(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(errors.ErrRedemptionAlreadyExists)

	_, err := service.RequestRedemption(ctx, &RequestRedemptionRequest{
		PassTokenID:  42,
		OwnerAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	})

	assert.ErrorIs(t, err, errors.ErrRedemptionAlreadyExists)
}

func TestFulfillFromProcessing(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()
	id := uuid.New()
	txHash := "0x" + "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"

	repo.On("FindByID", ctx, id).Return(&domain.NFTRedemption{
		ID:     id,
		Status: domain.RedemptionStatusProcessing,
	}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(red *domain.NFTRedemption) bool {
		return red.Status == domain.RedemptionStatusFulfilled &&
			red.ArtTokenID != nil && *red.ArtTokenID == 9 &&
			red.TxHash != nil && *red.TxHash == txHash &&
			red.FulfilledAt != nil
	}), domain.RedemptionStatusProcessing).Return(nil)

	red, err := service.Fulfill(ctx, &FulfillRequest{
		RedemptionID: id,
		ArtTokenID:   9,
		TxHash:       txHash,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionStatusFulfilled, red.Status)
	repo.AssertExpectations(t)
}

func TestFulfillFromRequestedRejected(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()
	id := uuid.New()

	repo.On("FindByID", ctx, id).Return(&domain.NFTRedemption{
		ID:     id,
		Status: domain.RedemptionStatusRequested,
	}, nil)

	_, err := service.Fulfill(ctx, &FulfillRequest{
		RedemptionID: id,
		ArtTokenID:   9,
		TxHash:       "0x" + "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
	})

	assert.ErrorIs(t, err, errors.ErrInvalidStatusTransition)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestFailRecordsReason(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()
	id := uuid.New()

	repo.On("FindByID", ctx, id).Return(&domain.NFTRedemption{
		ID:     id,
		Status: domain.RedemptionStatusProcessing,
	}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(red *domain.NFTRedemption) bool {
		return red.Status == domain.RedemptionStatusFailed &&
			red.FailureReason != nil && *red.FailureReason == "mint reverted"
	}), domain.RedemptionStatusProcessing).Return(nil)

	red, err := service.Fail(ctx, &FailRequest{
		RedemptionID: id,
		Reason:       "mint reverted",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionStatusFailed, red.Status)
}

func TestRetryAfterFailureClearsReason(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()
	id := uuid.New()
	reason := "mint reverted"

	repo.On("FindByID", ctx, id).Return(&domain.NFTRedemption{
		ID:            id,
		Status:        domain.RedemptionStatusFailed,
		FailureReason: &reason,
	}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(red *domain.NFTRedemption) bool {
		return red.Status == domain.RedemptionStatusProcessing && red.FailureReason == nil
	}), domain.RedemptionStatusFailed).Return(nil)

	red, err := service.StartProcessing(ctx, id)

	assert.NoError(t, err)
	assert.Equal(t, domain.RedemptionStatusProcessing, red.Status)
}

// A concurrent operator can move the row between our read and our write.
// The guarded UPDATE reports zero rows and the loser must surface a
// transition conflict rather than overwrite the winner.
func TestFailLosesRaceAgainstFulfill(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()
	id := uuid.New()

	repo.On("FindByID", ctx, id).Return(&domain.NFTRedemption{
		ID:     id,
		Status: domain.RedemptionStatusProcessing,
	}, nil)
	repo.On("Update", ctx, mock.Anything, domain.RedemptionStatusProcessing).
		Return(errors.ErrInvalidStatusTransition)

	_, err := service.Fail(ctx, &FailRequest{
		RedemptionID: id,
		Reason:       "mint reverted",
	})

	assert.ErrorIs(t, err, errors.ErrInvalidStatusTransition)
	repo.AssertExpectations(t)
}

func TestBacklog(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, logger.NewNop())
	ctx := context.Background()

	repo.On("CountByStatus", ctx, domain.RedemptionStatusRequested).Return(3, nil)
	repo.On("CountByStatus", ctx, domain.RedemptionStatusProcessing).Return(2, nil)

	backlog, err := service.Backlog(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 5, backlog)
}
