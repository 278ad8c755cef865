// ==============================================================================
// GAME SESSION SERVICE - internal/session/service.go
// ==============================================================================
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
)

// EventType identifies a live feed event.
type EventType string

const (
	EventSessionOpened  EventType = "session_opened"
	EventBetRecorded    EventType = "bet_recorded"
	EventSessionSettled EventType = "session_settled"
)

// Event is one entry on the live session feed.
type Event struct {
	Type      EventType           `json:"type"`
	Session   *domain.GameSession `json:"session"`
	Bet       *BetSummary         `json:"bet,omitempty"`
	EmittedAt time.Time           `json:"emitted_at"`
}

// BetSummary is the public shape of one recorded bet.
type BetSummary struct {
	PlayerAddress string          `json:"player_address,omitempty"`
	BotAddress    string          `json:"bot_address,omitempty"`
	Wagered       decimal.Decimal `json:"wagered"`
	Paid          decimal.Decimal `json:"paid"`
}

type Service struct {
	repo    Repository
	bots    BotRepository
	players PlayerRepository
	logger  logger.Logger

	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewService(repo Repository, bots BotRepository, players PlayerRepository, log logger.Logger) *Service {
	return &Service{
		repo:    repo,
		bots:    bots,
		players: players,
		logger:  log,
		subs:    make(map[int]chan Event),
	}
}

type OpenSessionRequest struct {
	GameType   domain.GameType `json:"game_type" validate:"required,oneof=craps roulette slots"`
	ChainBlock *int64          `json:"chain_block,omitempty"`
	Metadata   domain.Metadata `json:"metadata,omitempty"`
}

// OpenSession starts a new betting round.
func (s *Service) OpenSession(ctx context.Context, req *OpenSessionRequest) (*domain.GameSession, error) {
	now := time.Now()
	session := &domain.GameSession{
		ID:           uuid.New(),
		SessionCode:  newSessionCode(req.GameType, now),
		GameType:     req.GameType,
		Status:       domain.SessionStatusActive,
		TotalWagered: decimal.Zero,
		TotalPaid:    decimal.Zero,
		HouseEdge:    decimal.Zero,
		ChainBlock:   req.ChainBlock,
		Metadata:     req.Metadata,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if session.Metadata == nil {
		session.Metadata = domain.Metadata{}
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Session opened", map[string]interface{}{
		"session_id":   session.ID,
		"session_code": session.SessionCode,
		"game_type":    session.GameType,
	})

	s.broadcast(Event{Type: EventSessionOpened, Session: session, EmittedAt: now})
	return session, nil
}

type RecordBetRequest struct {
	SessionID     uuid.UUID       `json:"session_id" validate:"required"`
	PlayerAddress string          `json:"player_address,omitempty" validate:"omitempty,eth_address"`
	BotName       string          `json:"bot_name,omitempty"`
	BotAddress    string          `json:"bot_address,omitempty" validate:"omitempty,eth_address"`
	Wagered       decimal.Decimal `json:"wagered" validate:"required,gt=0"`
	Paid          decimal.Decimal `json:"paid" validate:"gte=0"`
}

// RecordBet folds one settled bet into the session and into the bettor's
// aggregate row. Exactly one of PlayerAddress or BotAddress identifies the
// bettor.
func (s *Service) RecordBet(ctx context.Context, req *RecordBetRequest) (*domain.GameSession, error) {
	if (req.PlayerAddress == "") == (req.BotAddress == "") {
		return nil, fmt.Errorf("exactly one of player_address or bot_address is required")
	}

	if err := s.repo.RecordBet(ctx, req.SessionID, req.Wagered, req.Paid); err != nil {
		return nil, err
	}

	now := time.Now()
	net := req.Paid.Sub(req.Wagered)

	if req.BotAddress != "" {
		perf := &domain.BotPerformance{
			ID:         uuid.New(),
			SessionID:  req.SessionID,
			BotName:    req.BotName,
			BotAddress: strings.ToLower(req.BotAddress),
			BetsPlaced: 1,
			Wagered:    req.Wagered,
			Won:        req.Paid,
			Lost:       req.Wagered,
			NetProfit:  net,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.bots.Upsert(ctx, perf); err != nil {
			return nil, err
		}
	} else {
		sessionID := req.SessionID
		stats := &domain.PlayerStats{
			ID:             uuid.New(),
			PlayerAddress:  strings.ToLower(req.PlayerAddress),
			LastSessionID:  &sessionID,
			SessionsPlayed: 1,
			BetsPlaced:     1,
			TotalWagered:   req.Wagered,
			TotalWon:       req.Paid,
			NetProfit:      net,
			BiggestWin:     req.Paid,
			LastSeenAt:     &now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.players.Apply(ctx, stats); err != nil {
			return nil, err
		}
	}

	session, err := s.repo.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	s.broadcast(Event{
		Type:    EventBetRecorded,
		Session: session,
		Bet: &BetSummary{
			PlayerAddress: strings.ToLower(req.PlayerAddress),
			BotAddress:    strings.ToLower(req.BotAddress),
			Wagered:       req.Wagered,
			Paid:          req.Paid,
		},
		EmittedAt: now,
	})
	return session, nil
}

type SettleSessionRequest struct {
	SessionID  uuid.UUID `json:"session_id" validate:"required"`
	ChainBlock *int64    `json:"chain_block,omitempty"`
}

// SettleSession closes the round: active -> settling -> settled. The settling
// step exists so a crashed settlement is visible rather than silently stuck
// in active.
func (s *Service) SettleSession(ctx context.Context, req *SettleSessionRequest) (*domain.GameSession, error) {
	current, err := s.repo.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.SessionStatusSettled {
		return nil, errors.ErrSessionAlreadySettled
	}

	if current.Status == domain.SessionStatusActive {
		if err := s.repo.UpdateStatus(ctx, req.SessionID, domain.SessionStatusActive, domain.SessionStatusSettling); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if err := s.repo.MarkSettled(ctx, req.SessionID, now, req.ChainBlock); err != nil {
		return nil, err
	}

	session, err := s.repo.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session settled", map[string]interface{}{
		"session_id":    session.ID,
		"session_code":  session.SessionCode,
		"total_bets":    session.TotalBets,
		"total_wagered": session.TotalWagered.String(),
		"house_edge":    session.HouseEdge.String(),
	})

	s.broadcast(Event{Type: EventSessionSettled, Session: session, EmittedAt: now})
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*domain.GameSession, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetSessionByCode(ctx context.Context, code string) (*domain.GameSession, error) {
	return s.repo.FindByCode(ctx, code)
}

func (s *Service) ListSessions(ctx context.Context, limit, offset int, status *domain.SessionStatus) ([]*domain.GameSession, int, error) {
	sessions, err := s.repo.FindAll(ctx, limit, offset, status)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Subscribe registers a live feed consumer. The returned cancel func must be
// called to release the subscription. Slow consumers drop events rather than
// block bet recording.
func (s *Service) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan Event, 32)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Service) broadcast(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func newSessionCode(gameType domain.GameType, at time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(string(gameType)), at.Format("20060102"), suffix)
}

type Repository interface {
	Create(ctx context.Context, session *domain.GameSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.GameSession, error)
	FindByCode(ctx context.Context, code string) (*domain.GameSession, error)
	FindAll(ctx context.Context, limit, offset int, status *domain.SessionStatus) ([]*domain.GameSession, error)
	Count(ctx context.Context, status *domain.SessionStatus) (int, error)
	RecordBet(ctx context.Context, id uuid.UUID, wagered, paid decimal.Decimal) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.SessionStatus) error
	MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time, chainBlock *int64) error
}

type BotRepository interface {
	Upsert(ctx context.Context, perf *domain.BotPerformance) error
}

type PlayerRepository interface {
	Apply(ctx context.Context, stats *domain.PlayerStats) error
}
