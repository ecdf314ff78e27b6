package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrBlockNotFound is returned when the node has no header for a block number.
var ErrBlockNotFound = errors.New("block not found")

// maxCachedTimes bounds the timestamp cache of a long-running server. The cache
// is dropped wholesale once it fills.
const maxCachedTimes = 1 << 16

// Client is the read-only node connection shared by the reconstructor, the
// contract reader and the archiver.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client

	mu    sync.RWMutex
	times map[uint64]uint64
}

// NewClient dials the JSON-RPC endpoint.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.New("rpc url is required")
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return &Client{
		rpc:   rpcClient,
		eth:   ethclient.NewClient(rpcClient),
		times: make(map[uint64]uint64),
	}, nil
}

func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// LatestBlockNumber is eth_blockNumber.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.eth.HeaderByNumber(ctx, number)
}

// BlockTimestamp returns the header time of a block in unix seconds.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	if ts, ok := c.cachedTime(number); ok {
		return ts, nil
	}

	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if errors.Is(err, ethereum.NotFound) || (err == nil && header == nil) {
		return 0, fmt.Errorf("%w: %d", ErrBlockNotFound, number)
	}
	if err != nil {
		return 0, err
	}

	c.storeTime(number, header.Time)
	return header.Time, nil
}

func (c *Client) cachedTime(number uint64) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.times[number]
	return ts, ok
}

func (c *Client) storeTime(number, ts uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.times) >= maxCachedTimes {
		c.times = make(map[uint64]uint64)
	}
	c.times[number] = ts
}

// FilterLogs is eth_getLogs. Callers set topic positions on the query.
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return c.eth.FilterLogs(ctx, query)
}

// CallContract is eth_call, used by contracts.Reader.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}
