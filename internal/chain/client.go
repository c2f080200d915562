// Package chain reads opinions and their trade events from the opinion
// contract over JSON-RPC.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// EthClient is the subset of ethclient.Client the reader needs.
type EthClient interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Options tunes the reader.
type Options struct {
	// StartBlock is where an unbounded scan begins, usually the deploy block.
	StartBlock uint64
	// LogStep is the initial block span of one eth_getLogs request.
	LogStep uint64
	// RetryDelay is the wait before the single retry of a throttled call.
	RetryDelay time.Duration
}

// Client implements domain.ChainReader.
type Client struct {
	eth      EthClient
	contract common.Address
	opts     Options
	logger   *slog.Logger
}

// Dial connects to rpcURL.
func Dial(ctx context.Context, rpcURL, contract string, opts Options, logger *slog.Logger) (*Client, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("chain: contract address %q: %w", contract, domain.ErrInvalidInput)
	}
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial: %w", err)
	}
	return NewClient(ec, common.HexToAddress(contract), opts, logger), nil
}

// NewClient wraps an existing EthClient.
func NewClient(eth EthClient, contract common.Address, opts Options, logger *slog.Logger) *Client {
	if opts.LogStep == 0 {
		opts.LogStep = 10_000
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Client{eth: eth, contract: contract, opts: opts, logger: logger}
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// NextOpinionID returns the id the next created opinion will get. Valid
// ids are 1..NextOpinionID-1.
func (c *Client) NextOpinionID(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "nextOpinionId")
	if err != nil {
		return 0, err
	}
	next, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("chain: nextOpinionId: unexpected type %T", out[0])
	}
	return next.Uint64(), nil
}

type opinionDetails struct {
	Creator                  common.Address
	CurrentAnswerOwner       common.Address
	Question                 string
	CurrentAnswer            string
	CurrentAnswerDescription string
	Link                     string
	NextPrice                *big.Int
	LastPrice                *big.Int
	TotalVolume              *big.Int
	SalePrice                *big.Int
	IsActive                 bool
	Categories               []string
}

// GetOpinion reads the current state of one opinion.
func (c *Client) GetOpinion(ctx context.Context, id uint64) (domain.Opinion, error) {
	if id == 0 {
		return domain.Opinion{}, fmt.Errorf("chain: get opinion: id 0: %w", domain.ErrInvalidInput)
	}
	data, err := opinionCoreABI.Pack("getOpinionDetails", new(big.Int).SetUint64(id))
	if err != nil {
		return domain.Opinion{}, fmt.Errorf("chain: pack getOpinionDetails: %w", err)
	}
	raw, err := c.callRaw(ctx, data)
	if err != nil {
		return domain.Opinion{}, fmt.Errorf("chain: get opinion %d: %w", id, err)
	}

	var d opinionDetails
	if err := opinionCoreABI.UnpackIntoInterface(&d, "getOpinionDetails", raw); err != nil {
		return domain.Opinion{}, fmt.Errorf("chain: unpack opinion %d: %w", id, err)
	}
	if d.Creator == (common.Address{}) {
		return domain.Opinion{}, fmt.Errorf("chain: opinion %d: %w", id, domain.ErrNotFound)
	}

	return domain.Opinion{
		ID:                       id,
		Question:                 d.Question,
		CurrentAnswer:            d.CurrentAnswer,
		CurrentAnswerDescription: d.CurrentAnswerDescription,
		Link:                     d.Link,
		CurrentAnswerOwner:       strings.ToLower(d.CurrentAnswerOwner.Hex()),
		Creator:                  strings.ToLower(d.Creator.Hex()),
		NextPrice:                FromBaseUnits(d.NextPrice),
		LastPrice:                FromBaseUnits(d.LastPrice),
		TotalVolume:              FromBaseUnits(d.TotalVolume),
		SalePrice:                FromBaseUnits(d.SalePrice),
		IsActive:                 d.IsActive,
		Categories:               d.Categories,
	}, nil
}

type answerRecord struct {
	Answer      string         `json:"answer"`
	Description string         `json:"description"`
	Owner       common.Address `json:"owner"`
	Price       *big.Int       `json:"price"`
	Timestamp   uint32         `json:"timestamp"`
}

// TradeCount returns the length of the opinion's answer history.
func (c *Client) TradeCount(ctx context.Context, id uint64) (int, error) {
	out, err := c.call(ctx, "getAnswerHistory", new(big.Int).SetUint64(id))
	if err != nil {
		return 0, err
	}
	records := *abi.ConvertType(out[0], new([]answerRecord)).(*[]answerRecord)
	return len(records), nil
}

// LatestBlock returns the current head block number.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	h, err := withRetry(ctx, c.opts.RetryDelay, func() (*types.Header, error) {
		return c.eth.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		return 0, fmt.Errorf("chain: latest block: %w", err)
	}
	return h.Number.Uint64(), nil
}

// call packs method, calls the contract and unpacks the outputs.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := opinionCoreABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	raw, err := c.callRaw(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}
	out, err := opinionCoreABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("chain: %s: empty result", method)
	}
	return out, nil
}

func (c *Client) callRaw(ctx context.Context, data []byte) ([]byte, error) {
	return withRetry(ctx, c.opts.RetryDelay, func() ([]byte, error) {
		return c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	})
}

var _ domain.ChainReader = (*Client)(nil)
