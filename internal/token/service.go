// ==============================================================================
// TOKEN BALANCE SERVICE - internal/token/service.go
// ==============================================================================
package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

// ChainReader is the subset of the chain client the service needs. Nil means
// no RPC is configured and the static payload is served.
type ChainReader interface {
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	ERC20Balance(ctx context.Context, token, holder common.Address) (*big.Int, error)
}

// Cache is satisfied by pkg/cache.RedisCache.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Service struct {
	reader   ChainReader
	network  domain.Network
	cache    Cache
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewService builds the token service. reader and cache may be nil.
func NewService(reader ChainReader, network domain.Network, cache Cache, cacheTTL time.Duration, log logger.Logger) *Service {
	return &Service{
		reader:   reader,
		network:  network,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

type BalancesRequest struct {
	Address string `json:"address" validate:"required,eth_address"`
	Network string `json:"network" validate:"required"`
}

type BalancesResponse struct {
	Address  string                `json:"address"`
	Network  domain.Network        `json:"network"`
	Source   string                `json:"source"` // chain | static | cache
	Balances []domain.TokenBalance `json:"balances"`
}

// GetBalances returns token balances for an address. Live chain reads are
// used when the requested network matches the configured one; everything
// else gets the static development payload.
func (s *Service) GetBalances(ctx context.Context, req *BalancesRequest) (*BalancesResponse, error) {
	if !validator.IsEthAddress(req.Address) {
		return nil, errors.ErrInvalidAddress
	}

	network := domain.Network(strings.ToLower(strings.TrimSpace(req.Network)))
	tokens := SupportedTokens(network)
	if tokens == nil {
		return nil, errors.ErrUnsupportedNetwork
	}

	address := strings.ToLower(req.Address)

	if s.reader == nil || network != s.network {
		return s.staticResponse(address, network, tokens), nil
	}

	cacheKey := fmt.Sprintf("balances:%s:%s", network, address)
	if s.cache != nil {
		var cached BalancesResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			cached.Source = "cache"
			return &cached, nil
		}
	}

	resp, err := s.chainResponse(ctx, address, network, tokens)
	if err != nil {
		s.logger.Warn("Chain balance read failed, serving static payload", map[string]interface{}{
			"address": address,
			"network": network,
			"error":   err.Error(),
		})
		return s.staticResponse(address, network, tokens), nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache balances", map[string]interface{}{"error": err.Error()})
		}
	}
	return resp, nil
}

func (s *Service) chainResponse(ctx context.Context, address string, network domain.Network, tokens []TokenInfo) (*BalancesResponse, error) {
	holder := common.HexToAddress(address)
	balances := make([]domain.TokenBalance, 0, len(tokens))

	for _, t := range tokens {
		var raw *big.Int
		var err error

		if t.Contract == "" {
			raw, err = s.reader.NativeBalance(ctx, holder)
		} else {
			raw, err = s.reader.ERC20Balance(ctx, common.HexToAddress(t.Contract), holder)
		}
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("failed to read %s balance", t.Symbol))
		}

		balances = append(balances, domain.TokenBalance{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Contract: t.Contract,
			Decimals: t.Decimals,
			Balance:  decimal.NewFromBigInt(raw, -int32(t.Decimals)),
			Raw:      raw.String(),
		})
	}

	return &BalancesResponse{
		Address:  address,
		Network:  network,
		Source:   "chain",
		Balances: balances,
	}, nil
}

func (s *Service) staticResponse(address string, network domain.Network, tokens []TokenInfo) *BalancesResponse {
	values := staticBalances[network]
	balances := make([]domain.TokenBalance, 0, len(tokens))

	for i, t := range tokens {
		value := decimal.Zero
		if i < len(values) {
			value, _ = decimal.NewFromString(values[i])
		}
		raw := value.Shift(int32(t.Decimals))

		balances = append(balances, domain.TokenBalance{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Contract: t.Contract,
			Decimals: t.Decimals,
			Balance:  value,
			Raw:      raw.String(),
		})
	}

	return &BalancesResponse{
		Address:  address,
		Network:  network,
		Source:   "static",
		Balances: balances,
	}
}
