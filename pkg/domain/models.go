package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GameSession represents a time-boxed betting round.
type GameSession struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	SessionCode  string          `json:"session_code" db:"session_code"`
	GameType     GameType        `json:"game_type" db:"game_type"`
	Status       SessionStatus   `json:"status" db:"status"`
	TotalBets    int64           `json:"total_bets" db:"total_bets"`
	TotalWagered decimal.Decimal `json:"total_wagered" db:"total_wagered"`
	TotalPaid    decimal.Decimal `json:"total_paid" db:"total_paid"`
	HouseEdge    decimal.Decimal `json:"house_edge" db:"house_edge"`
	ChainBlock   *int64          `json:"chain_block,omitempty" db:"chain_block"`
	Metadata     Metadata        `json:"metadata" db:"metadata"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	SettledAt    *time.Time      `json:"settled_at,omitempty" db:"settled_at"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

type GameType string

const (
	GameTypeCraps    GameType = "craps"
	GameTypeRoulette GameType = "roulette"
	GameTypeSlots    GameType = "slots"
)

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusSettling SessionStatus = "settling"
	SessionStatusSettled  SessionStatus = "settled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusSettling, SessionStatusSettled:
		return true
	}
	return false
}

// BotPerformance aggregates one bot's activity within a session.
type BotPerformance struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	SessionID  uuid.UUID       `json:"session_id" db:"session_id"`
	BotName    string          `json:"bot_name" db:"bot_name"`
	BotAddress string          `json:"bot_address" db:"bot_address"`
	BetsPlaced int64           `json:"bets_placed" db:"bets_placed"`
	Wagered    decimal.Decimal `json:"wagered" db:"wagered"`
	Won        decimal.Decimal `json:"won" db:"won"`
	Lost       decimal.Decimal `json:"lost" db:"lost"`
	NetProfit  decimal.Decimal `json:"net_profit" db:"net_profit"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// PlayerStats aggregates a player's lifetime activity, keyed by wallet address.
type PlayerStats struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	PlayerAddress  string          `json:"player_address" db:"player_address"`
	LastSessionID  *uuid.UUID      `json:"last_session_id,omitempty" db:"last_session_id"`
	SessionsPlayed int64           `json:"sessions_played" db:"sessions_played"`
	BetsPlaced     int64           `json:"bets_placed" db:"bets_placed"`
	TotalWagered   decimal.Decimal `json:"total_wagered" db:"total_wagered"`
	TotalWon       decimal.Decimal `json:"total_won" db:"total_won"`
	NetProfit      decimal.Decimal `json:"net_profit" db:"net_profit"`
	BiggestWin     decimal.Decimal `json:"biggest_win" db:"biggest_win"`
	LastSeenAt     *time.Time      `json:"last_seen_at,omitempty" db:"last_seen_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// NFTRedemption tracks the conversion of a mint pass into a final art token.
type NFTRedemption struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	PassTokenID   int64            `json:"pass_token_id" db:"pass_token_id"`
	OwnerAddress  string           `json:"owner_address" db:"owner_address"`
	Status        RedemptionStatus `json:"status" db:"status"`
	ArtTokenID    *int64           `json:"art_token_id,omitempty" db:"art_token_id"`
	TxHash        *string          `json:"tx_hash,omitempty" db:"tx_hash"`
	FailureReason *string          `json:"failure_reason,omitempty" db:"failure_reason"`
	RequestedAt   time.Time        `json:"requested_at" db:"requested_at"`
	FulfilledAt   *time.Time       `json:"fulfilled_at,omitempty" db:"fulfilled_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

type RedemptionStatus string

const (
	RedemptionStatusRequested  RedemptionStatus = "requested"
	RedemptionStatusProcessing RedemptionStatus = "processing"
	RedemptionStatusFulfilled  RedemptionStatus = "fulfilled"
	RedemptionStatusFailed     RedemptionStatus = "failed"
)

func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionStatusRequested, RedemptionStatusProcessing, RedemptionStatusFulfilled, RedemptionStatusFailed:
		return true
	}
	return false
}

// SystemMetric is a generic named gauge recorded by any service.
type SystemMetric struct {
	ID         uuid.UUID `json:"id" db:"id"`
	MetricName string    `json:"metric_name" db:"metric_name"`
	Value      float64   `json:"value" db:"value"`
	Labels     Metadata  `json:"labels" db:"labels"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// APIUsage is one row per handled API request, written asynchronously.
type APIUsage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Method     string    `json:"method" db:"method"`
	Route      string    `json:"route" db:"route"`
	StatusCode int       `json:"status_code" db:"status_code"`
	LatencyMs  int64     `json:"latency_ms" db:"latency_ms"`
	Caller     string    `json:"caller" db:"caller"`
	RequestID  string    `json:"request_id" db:"request_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TokenBalance is one token's balance for a queried address.
type TokenBalance struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Contract string          `json:"contract,omitempty"`
	Decimals int             `json:"decimals"`
	Balance  decimal.Decimal `json:"balance"`
	Raw      string          `json:"raw"`
}

// Network identifies a supported chain.
type Network string

const (
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia"
	NetworkLocal       Network = "local"
)

// Metadata is a JSON-compatible map
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &m)
}
