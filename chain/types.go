package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/abcfe/abcfe-wallet/config"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/wallet"
)

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Descriptor is one supported network and its single endpoint
type Descriptor struct {
	ID       prt.ChainID    `json:"id"`
	Name     string         `json:"name"`
	URL      string         `json:"rpcUrl"`
	Testnet  bool           `json:"testnet"`
	Currency NativeCurrency `json:"nativeCurrency"`
	Explorer string         `json:"blockExplorerUrl,omitempty"`
}

func DescriptorFromConfig(c config.Chain) Descriptor {
	return Descriptor{
		ID:      prt.ChainID(c.ID),
		Name:    c.Name,
		URL:     c.URL,
		Testnet: c.Testnet,
		Currency: NativeCurrency{
			Name:     "Ether",
			Symbol:   c.Symbol,
			Decimals: c.Decimals,
		},
		Explorer: c.Explorer,
	}
}

// QueryClient covers read-only node calls
type QueryClient interface {
	Balance(ctx context.Context, address common.Address, blockTag string) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// TxRequest is a transaction before signing. Zero/nil fields are filled
// from the node.
type TxRequest struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
	Nonce    *uint64
}

// TxClient signs with the derived account key and submits
type TxClient interface {
	SendTransaction(ctx context.Context, signer *wallet.Account, req TxRequest) (common.Hash, error)
	SignMessage(ctx context.Context, signer *wallet.Account, msg []byte) ([]byte, error)
}

// Clients is the pair bound to the active chain. A set taken through
// Registry.Acquire stays open until it is released, even when a switch
// retires it in the meantime.
type Clients struct {
	Query QueryClient
	Tx    TxClient

	closeFn func()

	mu      sync.Mutex
	holds   int
	retired bool
	closed  bool
}

func NewClients(q QueryClient, tx TxClient, closeFn func()) *Clients {
	return &Clients{Query: q, Tx: tx, closeFn: closeFn}
}

func (c *Clients) hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holds++
}

// Release returns a hold taken by Registry.Acquire
func (c *Clients) Release() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holds == 0 {
		return
	}
	c.holds--
	if c.retired && c.holds == 0 {
		c.closeLocked()
	}
}

// retire closes now when nobody holds the set, otherwise on the last Release
func (c *Clients) retire() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retired = true
	if c.holds == 0 {
		c.closeLocked()
	}
}

// Close releases the underlying connections regardless of holders
func (c *Clients) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Clients) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	if c.closeFn != nil {
		c.closeFn()
	}
}

// ClientFactory builds the clients for one chain
type ClientFactory func(ctx context.Context, d Descriptor) (*Clients, error)
