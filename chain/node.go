package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	log "github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/config"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/wallet"
)

// NodeOptions tunes every node connection
type NodeOptions struct {
	Timeout         time.Duration
	RateLimit       int // per second, 0 = unlimited
	BreakerRequests uint32
	BreakerRatio    float64
}

func NodeOptionsFromConfig(cfg config.Node) NodeOptions {
	return NodeOptions{
		Timeout:         time.Duration(cfg.TimeoutSec) * time.Second,
		RateLimit:       cfg.RateLimit,
		BreakerRequests: uint32(cfg.BreakerRequests),
		BreakerRatio:    cfg.BreakerRatio,
	}
}

// NewNodeClientFactory dials chain endpoints with go-ethereum's client
func NewNodeClientFactory(opts NodeOptions) ClientFactory {
	return func(ctx context.Context, d Descriptor) (*Clients, error) {
		nc, err := DialNode(ctx, d, opts)
		if err != nil {
			return nil, err
		}
		return NewClients(nc, nc, nc.Close), nil
	}
}

// NodeClient serves both QueryClient and TxClient against one endpoint.
type NodeClient struct {
	chain   Descriptor
	eth     *ethclient.Client
	rpc     *rpc.Client
	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
	timeout time.Duration
}

func DialNode(ctx context.Context, d Descriptor, opts NodeOptions) (*NodeClient, error) {
	eth, err := ethclient.DialContext(ctx, d.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", prt.ErrNetwork, d.URL, err)
	}

	limiter := ratelimit.NewUnlimited()
	if opts.RateLimit > 0 {
		limiter = ratelimit.New(opts.RateLimit)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &NodeClient{
		chain:   d,
		eth:     eth,
		rpc:     eth.Client(),
		cb:      newCircuitBreaker(d.Name, opts),
		limiter: limiter,
		timeout: timeout,
	}, nil
}

func newCircuitBreaker(name string, opts NodeOptions) *gobreaker.CircuitBreaker {
	minRequests := opts.BreakerRequests
	if minRequests == 0 {
		minRequests = 10
	}
	ratio := opts.BreakerRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warn("node ", name, " seems down, stop allowing requests")
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				log.Info("checking node ", name, " status")
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				log.Info("node ", name, " seems ok, restart allowing requests")
			}
		},
	})
}

func (c *NodeClient) Chain() Descriptor {
	return c.chain
}

func (c *NodeClient) Close() {
	c.eth.Close()
}

// call rate limits, applies the node timeout and runs fn in the breaker
func (c *NodeClient) call(ctx context.Context, method string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	c.limiter.Take()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		log.Debug("node call failed: ", c.chain.Name, " ", method, " ", err)
		return nil, fmt.Errorf("%w: %s on %s: %v", prt.ErrNetwork, method, c.chain.Name, err)
	}
	return res, nil
}

// Balance passes blockTag through to eth_getBalance untouched
func (c *NodeClient) Balance(ctx context.Context, address common.Address, blockTag string) (*big.Int, error) {
	res, err := c.call(ctx, "eth_getBalance", func(ctx context.Context) (interface{}, error) {
		var balance hexutil.Big
		if err := c.rpc.CallContext(ctx, &balance, "eth_getBalance", address, blockTag); err != nil {
			return nil, err
		}
		return (*big.Int)(&balance), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*big.Int), nil
}

func (c *NodeClient) ChainID(ctx context.Context) (*big.Int, error) {
	res, err := c.call(ctx, "eth_chainId", func(ctx context.Context) (interface{}, error) {
		return c.eth.ChainID(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.(*big.Int), nil
}

// SendTransaction fills nonce and gas from the node, signs a legacy
// EIP-155 transaction locally and broadcasts it.
func (c *NodeClient) SendTransaction(ctx context.Context, signer *wallet.Account, req TxRequest) (common.Hash, error) {
	key := signer.PrivateKey()
	if key == nil {
		return common.Hash{}, fmt.Errorf("%w: account %s has no signing key", prt.ErrValidation, signer.Hex())
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	var nonce uint64
	if req.Nonce != nil {
		nonce = *req.Nonce
	} else {
		res, err := c.call(ctx, "eth_getTransactionCount", func(ctx context.Context) (interface{}, error) {
			return c.eth.PendingNonceAt(ctx, signer.Address)
		})
		if err != nil {
			return common.Hash{}, err
		}
		nonce = res.(uint64)
	}

	gasPrice := req.GasPrice
	if gasPrice == nil {
		res, err := c.call(ctx, "eth_gasPrice", func(ctx context.Context) (interface{}, error) {
			return c.eth.SuggestGasPrice(ctx)
		})
		if err != nil {
			return common.Hash{}, err
		}
		gasPrice = res.(*big.Int)
	}

	gas := req.Gas
	if gas == 0 {
		msg := ethereum.CallMsg{
			From:     signer.Address,
			To:       req.To,
			GasPrice: gasPrice,
			Value:    value,
			Data:     req.Data,
		}
		res, err := c.call(ctx, "eth_estimateGas", func(ctx context.Context) (interface{}, error) {
			return c.eth.EstimateGas(ctx, msg)
		})
		if err != nil {
			return common.Hash{}, err
		}
		gas = res.(uint64)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       req.To,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     req.Data,
	})
	chainID := new(big.Int).SetUint64(uint64(c.chain.ID))
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: failed to sign transaction: %v", prt.ErrCrypto, err)
	}

	if _, err := c.call(ctx, "eth_sendRawTransaction", func(ctx context.Context) (interface{}, error) {
		return nil, c.eth.SendTransaction(ctx, signed)
	}); err != nil {
		return common.Hash{}, err
	}

	log.Info("transaction sent: ", c.chain.Name, " ", signed.Hash().Hex(), " from ", utils.ShortHex(signer.Hex()))
	return signed.Hash(), nil
}

// SignMessage signs locally (EIP-191); no node call is made.
func (c *NodeClient) SignMessage(ctx context.Context, signer *wallet.Account, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := signer.PrivateKey()
	if key == nil {
		return nil, fmt.Errorf("%w: account %s has no signing key", prt.ErrValidation, signer.Hex())
	}
	sig, err := crypto.SignMessage(key, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", prt.ErrCrypto, err)
	}
	return sig, nil
}
