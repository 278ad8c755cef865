package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

func (m *MockRepository) Create(ctx context.Context, session *domain.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GameSession), args.Error(1)
}

func (m *MockRepository) FindByCode(ctx context.Context, code string) (*domain.GameSession, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GameSession), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, limit, offset int, status *domain.SessionStatus) ([]*domain.GameSession, error) {
	args := m.Called(ctx, limit, offset, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GameSession), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context, status *domain.SessionStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) RecordBet(ctx context.Context, id uuid.UUID, wagered, paid decimal.Decimal) error {
	args := m.Called(ctx, id, wagered, paid)
	return args.Error(0)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.SessionStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockRepository) MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time, chainBlock *int64) error {
	args := m.Called(ctx, id, settledAt, chainBlock)
	return args.Error(0)
}

type MockBotRepository struct {
	mock.Mock
}

func (m *MockBotRepository) Upsert(ctx context.Context, perf *domain.BotPerformance) error {
	args := m.Called(ctx, perf)
	return args.Error(0)
}

type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) Apply(ctx context.Context, stats *domain.PlayerStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func newTestService() (*Service, *MockRepository, *MockBotRepository, *MockPlayerRepository) {
	repo := new(MockRepository)
	bots := new(MockBotRepository)
	players := new(MockPlayerRepository)
	return NewService(repo, bots, players, logger.NewNop()), repo, bots, players
}

// --- Tests ---

func TestOpenSession(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.GameSession")).Return(nil)

	sess, err := service.OpenSession(ctx, &OpenSessionRequest{GameType: domain.GameTypeCraps})

	assert.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, sess.Status)
	assert.Equal(t, domain.GameTypeCraps, sess.GameType)
	assert.True(t, strings.HasPrefix(sess.SessionCode, "CRAPS-"))
	assert.True(t, sess.TotalWagered.IsZero())
	assert.NotNil(t, sess.Metadata)
	repo.AssertExpectations(t)
}

func TestRecordBetRequiresExactlyOneBettor(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()
	sessionID := uuid.New()
	wagered := decimal.NewFromInt(10)

	// Neither address set
	_, err := service.RecordBet(ctx, &RecordBetRequest{
		SessionID: sessionID,
		Wagered:   wagered,
	})
	assert.Error(t, err)

	// Both addresses set
	_, err = service.RecordBet(ctx, &RecordBetRequest{
		SessionID:     sessionID,
		PlayerAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		BotAddress:    "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
		Wagered:       wagered,
	})
	assert.Error(t, err)
}

func TestRecordBetBotPath(t *testing.T) {
	service, repo, bots, players := newTestService()
	ctx := context.Background()
	sessionID := uuid.New()
	wagered := decimal.NewFromInt(100)
	paid := decimal.NewFromInt(180)

	repo.On("RecordBet", ctx, sessionID, wagered, paid).Return(nil)
	repo.On("FindByID", ctx, sessionID).Return(&domain.GameSession{
		ID:     sessionID,
		Status: domain.SessionStatusActive,
	}, nil)
	bots.On("Upsert", ctx, mock.MatchedBy(func(perf *domain.BotPerformance) bool {
		return perf.SessionID == sessionID &&
			perf.BotAddress == "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc" &&
			perf.BetsPlaced == 1 &&
			perf.NetProfit.Equal(decimal.NewFromInt(80))
	})).Return(nil)

	_, err := service.RecordBet(ctx, &RecordBetRequest{
		SessionID:  sessionID,
		BotName:    "alice",
		BotAddress: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
		Wagered:    wagered,
		Paid:       paid,
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	bots.AssertExpectations(t)
	players.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRecordBetPlayerPath(t *testing.T) {
	service, repo, bots, players := newTestService()
	ctx := context.Background()
	sessionID := uuid.New()
	wagered := decimal.NewFromInt(25)
	paid := decimal.Zero

	repo.On("RecordBet", ctx, sessionID, wagered, paid).Return(nil)
	repo.On("FindByID", ctx, sessionID).Return(&domain.GameSession{ID: sessionID}, nil)
	players.On("Apply", ctx, mock.MatchedBy(func(stats *domain.PlayerStats) bool {
		return stats.PlayerAddress == "0x70997970c51812dc3a010c7d01b50e0d17dc79c8" &&
			stats.BetsPlaced == 1 &&
			stats.NetProfit.Equal(decimal.NewFromInt(-25)) &&
			stats.LastSessionID != nil && *stats.LastSessionID == sessionID
	})).Return(nil)

	_, err := service.RecordBet(ctx, &RecordBetRequest{
		SessionID:     sessionID,
		PlayerAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Wagered:       wagered,
		Paid:          paid,
	})

	assert.NoError(t, err)
	players.AssertExpectations(t)
	bots.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestRecordBetOnInactiveSession(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()
	sessionID := uuid.New()
	wagered := decimal.NewFromInt(10)

	repo.On("RecordBet", ctx, sessionID, wagered, decimal.Zero).Return(errors.ErrSessionNotActive)

	_, err := service.RecordBet(ctx, &RecordBetRequest{
		SessionID:  sessionID,
		BotAddress: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
		Wagered:    wagered,
		Paid:       decimal.Zero,
	})

	assert.ErrorIs(t, err, errors.ErrSessionNotActive)
}

func TestSettleSession(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()
	sessionID := uuid.New()

	active := &domain.GameSession{ID: sessionID, Status: domain.SessionStatusActive}
	settled := &domain.GameSession{ID: sessionID, Status: domain.SessionStatusSettled}

	repo.On("FindByID", ctx, sessionID).Return(active, nil).Once()
	repo.On("UpdateStatus", ctx, sessionID, domain.SessionStatusActive, domain.SessionStatusSettling).Return(nil)
	repo.On("MarkSettled", ctx, sessionID, mock.AnythingOfType("time.Time"), (*int64)(nil)).Return(nil)
	repo.On("FindByID", ctx, sessionID).Return(settled, nil).Once()

	result, err := service.SettleSession(ctx, &SettleSessionRequest{SessionID: sessionID})

	assert.NoError(t, err)
	assert.Equal(t, domain.SessionStatusSettled, result.Status)
	repo.AssertExpectations(t)
}

func TestSettleSessionAlreadySettled(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()
	sessionID := uuid.New()

	repo.On("FindByID", ctx, sessionID).Return(&domain.GameSession{
		ID:     sessionID,
		Status: domain.SessionStatusSettled,
	}, nil)

	_, err := service.SettleSession(ctx, &SettleSessionRequest{SessionID: sessionID})

	assert.ErrorIs(t, err, errors.ErrSessionAlreadySettled)
	repo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.GameSession")).Return(nil)

	events, cancel := service.Subscribe()
	defer cancel()

	_, err := service.OpenSession(ctx, &OpenSessionRequest{GameType: domain.GameTypeSlots})
	assert.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, EventSessionOpened, ev.Type)
		assert.Equal(t, domain.GameTypeSlots, ev.Session.GameType)
	case <-time.After(time.Second):
		t.Fatal("expected a session_opened event")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	service, _, _, _ := newTestService()

	events, cancel := service.Subscribe()
	cancel()

	_, ok := <-events
	assert.False(t, ok)
}
