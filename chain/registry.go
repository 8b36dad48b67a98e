package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	log "github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/config"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

var (
	ErrUnsupportedChain = fmt.Errorf("%w: unsupported chain", prt.ErrValidation)
	ErrNoChains         = errors.New("chain table is empty")
)

// SwitchListener is called after the active chain changed
type SwitchListener func(from, to Descriptor)

// Registry owns the chain table, the active chain and its clients.
// It is passed explicitly to whoever needs it.
type Registry struct {
	chains  map[prt.ChainID]Descriptor
	order   []prt.ChainID
	factory ClientFactory

	mu        sync.RWMutex
	active    Descriptor
	clients   *Clients
	listeners []SwitchListener
}

func NewRegistry(chains []config.Chain, defaultID uint64, factory ClientFactory) (*Registry, error) {
	if len(chains) == 0 {
		return nil, ErrNoChains
	}
	if factory == nil {
		return nil, errors.New("client factory is required")
	}

	r := &Registry{
		chains:  make(map[prt.ChainID]Descriptor, len(chains)),
		factory: factory,
	}
	for _, c := range chains {
		d := DescriptorFromConfig(c)
		if _, dup := r.chains[d.ID]; dup {
			return nil, fmt.Errorf("chain %d declared twice", d.ID)
		}
		r.chains[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })

	active, ok := r.chains[prt.ChainID(defaultID)]
	if !ok {
		return nil, fmt.Errorf("%w: default chain %d", ErrUnsupportedChain, defaultID)
	}
	r.active = active
	return r, nil
}

func (r *Registry) CurrentChain() Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Chains returns the table ordered by id
func (r *Registry) Chains() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.chains[id])
	}
	return out
}

func (r *Registry) Lookup(id prt.ChainID) (Descriptor, bool) {
	d, ok := r.chains[id]
	return d, ok
}

// Clients returns the clients of the active chain, building them on first use.
// The set is not held, so a later switch may close it.
func (r *Registry) Clients(ctx context.Context) (*Clients, Descriptor, error) {
	return r.get(ctx, false)
}

// Acquire is Clients plus a hold on the returned set. The caller must
// Release it; a switch in between closes the set only after that.
func (r *Registry) Acquire(ctx context.Context) (*Clients, Descriptor, error) {
	return r.get(ctx, true)
}

func (r *Registry) get(ctx context.Context, hold bool) (*Clients, Descriptor, error) {
	r.mu.RLock()
	clients, active := r.clients, r.active
	if clients != nil && hold {
		clients.hold()
	}
	r.mu.RUnlock()
	if clients != nil {
		return clients, active, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients == nil {
		built, err := r.factory(ctx, r.active)
		if err != nil {
			return nil, r.active, fmt.Errorf("failed to build clients for chain %d: %w", r.active.ID, err)
		}
		r.clients = built
	}
	if hold {
		r.clients.hold()
	}
	return r.clients, r.active, nil
}

// Switch activates chain id. Unknown ids and client build failures return
// false and leave the active chain and clients as they were. The previous
// clients close once their last holder releases them.
func (r *Registry) Switch(ctx context.Context, id prt.ChainID) (bool, error) {
	target, ok := r.Lookup(id)
	if !ok {
		log.Warn("switch to unsupported chain: ", id)
		return false, nil
	}

	built, err := r.factory(ctx, target)
	if err != nil {
		log.Error("failed to build clients for chain ", id, ": ", err)
		return false, fmt.Errorf("failed to build clients for chain %d: %w", id, err)
	}

	r.mu.Lock()
	from, old := r.active, r.clients
	r.active, r.clients = target, built
	listeners := append([]SwitchListener(nil), r.listeners...)
	r.mu.Unlock()

	old.retire()
	log.Info("active chain switched: ", from.Name, " -> ", target.Name)

	for _, fn := range listeners {
		fn(from, target)
	}
	return true, nil
}

func (r *Registry) OnSwitch(fn SwitchListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients.Close()
	r.clients = nil
}
