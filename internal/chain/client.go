// Package chain wraps go-ethereum's ethclient with the handful of read calls
// the token service and the probe commands need.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"pitboss/pkg/errors"
)

const erc20ABIJSON = `[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]}
]`

const crapsGameABIJSON = `[
	{"name":"currentSeries","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"phase","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
	{"name":"point","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
	{"name":"houseBankroll","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]}
]`

const botManagerABIJSON = `[
	{"name":"botCount","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"bots","type":"function","stateMutability":"view","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"type":"address"}]},
	{"name":"isActive","type":"function","stateMutability":"view","inputs":[{"name":"bot","type":"address"}],"outputs":[{"type":"bool"}]}
]`

var (
	erc20ABI      abi.ABI
	crapsGameABI  abi.ABI
	botManagerABI abi.ABI
)

func init() {
	var err error
	if erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON)); err != nil {
		panic(err)
	}
	if crapsGameABI, err = abi.JSON(strings.NewReader(crapsGameABIJSON)); err != nil {
		panic(err)
	}
	if botManagerABI, err = abi.JSON(strings.NewReader(botManagerABIJSON)); err != nil {
		panic(err)
	}
}

// Client is a thin read-only wrapper over one RPC endpoint.
type Client struct {
	ec      *ethclient.Client
	timeout time.Duration
}

// Dial connects to the node and verifies it answers.
func Dial(ctx context.Context, rpcURL string, timeout time.Duration) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial chain rpc")
	}
	c := &Client{ec: ec, timeout: timeout}
	if _, err := c.BlockNumber(ctx); err != nil {
		ec.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrChainUnavailable, err)
	}
	return c, nil
}

func (c *Client) Close() {
	c.ec.Close()
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	n, err := c.ec.BlockNumber(ctx)
	return n, errors.Wrap(err, "blockNumber call failed")
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	id, err := c.ec.ChainID(ctx)
	return id, errors.Wrap(err, "chainId call failed")
}

// NativeBalance returns the address's ETH balance in wei at the latest block.
func (c *Client) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	bal, err := c.ec.BalanceAt(ctx, addr, nil)
	return bal, errors.Wrap(err, "getBalance call failed")
}

// ERC20Balance returns holder's balance on the given token contract.
func (c *Client) ERC20Balance(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, erc20ABI, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf returned unexpected type %T", out[0])
	}
	return bal, nil
}

// ERC20Meta holds the descriptive fields of a token contract.
type ERC20Meta struct {
	Symbol   string
	Name     string
	Decimals uint8
}

func (c *Client) ERC20Metadata(ctx context.Context, token common.Address) (*ERC20Meta, error) {
	meta := &ERC20Meta{}

	out, err := c.call(ctx, token, erc20ABI, "symbol")
	if err != nil {
		return nil, err
	}
	meta.Symbol, _ = out[0].(string)

	out, err = c.call(ctx, token, erc20ABI, "name")
	if err != nil {
		return nil, err
	}
	meta.Name, _ = out[0].(string)

	out, err = c.call(ctx, token, erc20ABI, "decimals")
	if err != nil {
		return nil, err
	}
	if d, ok := out[0].(uint8); ok {
		meta.Decimals = d
	}
	return meta, nil
}

func (c *Client) ERC20TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, erc20ABI, "totalSupply")
	if err != nil {
		return nil, err
	}
	supply, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("totalSupply returned unexpected type %T", out[0])
	}
	return supply, nil
}

// CrapsState is the observable state of the craps game contract.
type CrapsState struct {
	Series        *big.Int
	Phase         uint8
	Point         uint8
	HouseBankroll *big.Int
}

// CrapsPhaseName translates the on-chain phase enum for display.
func CrapsPhaseName(phase uint8) string {
	switch phase {
	case 0:
		return "idle"
	case 1:
		return "come_out"
	case 2:
		return "point"
	default:
		return fmt.Sprintf("unknown(%d)", phase)
	}
}

func (c *Client) CrapsState(ctx context.Context, game common.Address) (*CrapsState, error) {
	state := &CrapsState{}

	out, err := c.call(ctx, game, crapsGameABI, "currentSeries")
	if err != nil {
		return nil, err
	}
	state.Series, _ = out[0].(*big.Int)

	out, err = c.call(ctx, game, crapsGameABI, "phase")
	if err != nil {
		return nil, err
	}
	if p, ok := out[0].(uint8); ok {
		state.Phase = p
	}

	out, err = c.call(ctx, game, crapsGameABI, "point")
	if err != nil {
		return nil, err
	}
	if p, ok := out[0].(uint8); ok {
		state.Point = p
	}

	out, err = c.call(ctx, game, crapsGameABI, "houseBankroll")
	if err != nil {
		return nil, err
	}
	state.HouseBankroll, _ = out[0].(*big.Int)

	return state, nil
}

// BotInfo is one registered bot on the bot manager contract.
type BotInfo struct {
	Address common.Address
	Active  bool
}

// BotRoster walks the manager's bot list. The list is expected to be small
// (tens of bots), so sequential reads are fine.
func (c *Client) BotRoster(ctx context.Context, manager common.Address) ([]BotInfo, error) {
	out, err := c.call(ctx, manager, botManagerABI, "botCount")
	if err != nil {
		return nil, err
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("botCount returned unexpected type %T", out[0])
	}

	var roster []BotInfo
	for i := int64(0); i < count.Int64(); i++ {
		out, err := c.call(ctx, manager, botManagerABI, "bots", big.NewInt(i))
		if err != nil {
			return nil, err
		}
		addr, ok := out[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("bots(%d) returned unexpected type %T", i, out[0])
		}

		out, err = c.call(ctx, manager, botManagerABI, "isActive", addr)
		if err != nil {
			return nil, err
		}
		active, _ := out[0].(bool)

		roster = append(roster, BotInfo{Address: addr, Active: active})
	}
	return roster, nil
}

func (c *Client) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to pack %s call", method))
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	output, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("%s call failed", method))
	}

	out, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to unpack %s result", method))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out, nil
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
