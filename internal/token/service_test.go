package token

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pitboss/pkg/domain"
	"pitboss/pkg/errors"
	"pitboss/pkg/logger"
)

// --- Mocks ---

type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainReader) ERC20Balance(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	args := m.Called(ctx, token, holder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

const testAddress = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

// --- Tests ---

func TestGetBalancesRejectsMalformedAddress(t *testing.T) {
	service := NewService(nil, domain.NetworkLocal, nil, time.Minute, logger.NewNop())

	for _, addr := range []string{"", "nothex", "0x123", "70997970C51812dc3A010C7d01b50e0d17dc79C8"} {
		_, err := service.GetBalances(context.Background(), &BalancesRequest{
			Address: addr,
			Network: "local",
		})
		assert.ErrorIs(t, err, errors.ErrInvalidAddress, "address %q", addr)
	}
}

func TestGetBalancesRejectsUnknownNetwork(t *testing.T) {
	service := NewService(nil, domain.NetworkLocal, nil, time.Minute, logger.NewNop())

	_, err := service.GetBalances(context.Background(), &BalancesRequest{
		Address: testAddress,
		Network: "dogecoin",
	})
	assert.ErrorIs(t, err, errors.ErrUnsupportedNetwork)
}

func TestGetBalancesStaticWithoutReader(t *testing.T) {
	service := NewService(nil, domain.NetworkLocal, nil, time.Minute, logger.NewNop())

	resp, err := service.GetBalances(context.Background(), &BalancesRequest{
		Address: testAddress,
		Network: "local",
	})

	assert.NoError(t, err)
	assert.Equal(t, "static", resp.Source)
	assert.Equal(t, domain.NetworkLocal, resp.Network)
	assert.Len(t, resp.Balances, len(SupportedTokens(domain.NetworkLocal)))
	assert.Equal(t, "ETH", resp.Balances[0].Symbol)
	assert.True(t, resp.Balances[0].Balance.Equal(decimal.RequireFromString("9999.0")))
}

func TestGetBalancesStaticForOtherNetwork(t *testing.T) {
	// Reader is configured for local, so base requests stay static.
	reader := new(MockChainReader)
	service := NewService(reader, domain.NetworkLocal, nil, time.Minute, logger.NewNop())

	resp, err := service.GetBalances(context.Background(), &BalancesRequest{
		Address: testAddress,
		Network: "base",
	})

	assert.NoError(t, err)
	assert.Equal(t, "static", resp.Source)
	reader.AssertNotCalled(t, "NativeBalance", mock.Anything, mock.Anything)
}

func TestGetBalancesFromChain(t *testing.T) {
	reader := new(MockChainReader)
	service := NewService(reader, domain.NetworkLocal, nil, time.Minute, logger.NewNop())
	ctx := context.Background()

	holder := common.HexToAddress(testAddress)
	houseToken := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	oneEth := new(big.Int)
	oneEth.SetString("1000000000000000000", 10)
	reader.On("NativeBalance", mock.Anything, holder).Return(oneEth, nil)
	reader.On("ERC20Balance", mock.Anything, houseToken, holder).Return(big.NewInt(500), nil)

	resp, err := service.GetBalances(ctx, &BalancesRequest{
		Address: testAddress,
		Network: "local",
	})

	assert.NoError(t, err)
	assert.Equal(t, "chain", resp.Source)
	assert.True(t, resp.Balances[0].Balance.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "1000000000000000000", resp.Balances[0].Raw)
	assert.Equal(t, "HOUSE", resp.Balances[1].Symbol)
	assert.Equal(t, "500", resp.Balances[1].Raw)
	reader.AssertExpectations(t)
}

func TestGetBalancesFallsBackWhenChainFails(t *testing.T) {
	reader := new(MockChainReader)
	service := NewService(reader, domain.NetworkLocal, nil, time.Minute, logger.NewNop())

	reader.On("NativeBalance", mock.Anything, mock.Anything).Return(nil, errors.ErrChainUnavailable)

	resp, err := service.GetBalances(context.Background(), &BalancesRequest{
		Address: testAddress,
		Network: "local",
	})

	assert.NoError(t, err)
	assert.Equal(t, "static", resp.Source)
}

func TestGetBalancesCacheHit(t *testing.T) {
	reader := new(MockChainReader)
	cache := new(MockCache)
	service := NewService(reader, domain.NetworkLocal, cache, time.Minute, logger.NewNop())

	cache.On("Get", mock.Anything, "balances:local:0x70997970c51812dc3a010c7d01b50e0d17dc79c8", mock.Anything).Return(nil)

	resp, err := service.GetBalances(context.Background(), &BalancesRequest{
		Address: testAddress,
		Network: "local",
	})

	assert.NoError(t, err)
	assert.Equal(t, "cache", resp.Source)
	reader.AssertNotCalled(t, "NativeBalance", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestSupportedTokensRegistry(t *testing.T) {
	for _, network := range SupportedNetworks() {
		tokens := SupportedTokens(network)
		assert.NotEmpty(t, tokens, "network %s", network)
		assert.Equal(t, "ETH", tokens[0].Symbol)
		assert.Empty(t, tokens[0].Contract, "native asset has no contract")
	}
	assert.Nil(t, SupportedTokens(domain.Network("unknown")))
}
