package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/abcfe/abcfe-wallet/chain"
	"github.com/abcfe/abcfe-wallet/common/crypto"
	log "github.com/abcfe/abcfe-wallet/common/logger"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// Events pushed to connected dapps
const (
	EventConnected       = "connected"
	EventChainChanged    = "chainChanged"
	EventAccountsChanged = "accountsChanged"
)

// Emitter delivers provider events
type Emitter interface {
	Emit(event string, data interface{})
}

type nopEmitter struct{}

func (nopEmitter) Emit(string, interface{}) {}

// ChainSwitcher changes the active chain
type ChainSwitcher interface {
	Switch(ctx context.Context, id prt.ChainID) (bool, error)
}

// Dispatcher is the EIP-1193 request entry point. Every call snapshots
// wallet and chain state, runs one typed request and never lets an error
// or panic escape as anything but an *RPCError.
type Dispatcher struct {
	snapshots Snapshotter
	switcher  ChainSwitcher
	emitter   Emitter
	metrics   *Metrics
}

type Option func(*Dispatcher)

func WithEmitter(e Emitter) Option {
	return func(d *Dispatcher) { d.emitter = e }
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(snapshots Snapshotter, switcher ChainSwitcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		snapshots: snapshots,
		switcher:  switcher,
		emitter:   nopEmitter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Request serves one provider call
func (d *Dispatcher) Request(ctx context.Context, method string, params json.RawMessage) (result interface{}, rpcErr *RPCError) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("provider panic: ", method, " ", r)
			result, rpcErr = nil, &RPCError{Code: CodeInternalError, Message: fmt.Sprintf("internal error: %v", r)}
		}

		outcome := "ok"
		if rpcErr != nil {
			outcome = "error"
			log.Debug("provider request failed: ", method, " ", rpcErr.Code, " ", rpcErr.Message)
		}
		d.metrics.observe(method, outcome, time.Since(start).Seconds())
	}()

	res, err := d.serve(ctx, method, params)
	if err != nil {
		return nil, ToRPCError(err)
	}
	return res, nil
}

func (d *Dispatcher) serve(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	req, err := ParseRequest(method, params)
	if err != nil {
		return nil, err
	}

	session, err := d.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Release()
	if session.Clients == nil || session.Clients.Query == nil || session.Clients.Tx == nil {
		return nil, ErrNoClients
	}

	switch r := req.(type) {
	case RequestAccountsRequest, AccountsRequest:
		return session.Addresses(), nil
	case ChainIDRequest:
		return session.ChainIDHex, nil
	case GetBalanceRequest:
		return d.getBalance(ctx, session, r)
	case SendTransactionRequest:
		return d.sendTransaction(ctx, session, r)
	case PersonalSignRequest:
		return d.personalSign(ctx, session, r)
	case SwitchChainRequest:
		return d.switchChain(ctx, r)
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}
}

func (d *Dispatcher) getBalance(ctx context.Context, s *Session, r GetBalanceRequest) (interface{}, error) {
	if r.Address == nil {
		if s.Active == nil {
			return nil, ErrNoActiveAccount
		}
		addr := s.Active.Address
		r.Address = &addr
	}
	bal, err := s.Clients.Query.Balance(ctx, *r.Address, r.BlockTag)
	if err != nil {
		return nil, err
	}
	return bal.String(), nil
}

func (d *Dispatcher) sendTransaction(ctx context.Context, s *Session, r SendTransactionRequest) (interface{}, error) {
	if s.Active == nil {
		return nil, ErrNoActiveAccount
	}
	if !crypto.SameAddress(r.From, s.Active.Hex()) {
		return nil, fmt.Errorf("%w: from %s", ErrAddressMismatch, r.From)
	}

	hash, err := s.Clients.Tx.SendTransaction(ctx, s.Active, chain.TxRequest{
		From:     s.Active.Address,
		To:       r.To,
		Value:    r.Value,
		Data:     r.Data,
		Gas:      r.Gas,
		GasPrice: r.GasPrice,
		Nonce:    r.Nonce,
	})
	if err != nil {
		return nil, err
	}
	return hash.Hex(), nil
}

func (d *Dispatcher) personalSign(ctx context.Context, s *Session, r PersonalSignRequest) (interface{}, error) {
	if s.Active == nil {
		return nil, ErrNoActiveAccount
	}
	if !crypto.SameAddress(r.Address, s.Active.Hex()) {
		return nil, fmt.Errorf("%w: %s", ErrAddressMismatch, r.Address)
	}

	sig, err := s.Clients.Tx.SignMessage(ctx, s.Active, r.Message)
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(sig), nil
}

func (d *Dispatcher) switchChain(ctx context.Context, r SwitchChainRequest) (interface{}, error) {
	ok, err := d.switcher.Switch(ctx, r.ChainID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: chain %s is not supported", prt.ErrValidation, r.ChainID.Hex())
	}

	d.metrics.ChainSwitched(r.ChainID.String())
	d.emitter.Emit(EventChainChanged, r.ChainID.Hex())
	return nil, nil
}
