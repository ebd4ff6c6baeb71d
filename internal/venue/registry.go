// Package venue contains the per-protocol adapters that turn a validated
// reallocation action into an ordered list of low-level operations, plus the
// deterministic address derivation and asset-conversion machinery they share.
//
// Adapters are looked up through a registry keyed by venue kind; adding a
// protocol means registering a new implementation, not editing a dispatch
// switch.
package venue

import (
	"context"
	"fmt"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// Context is the vault-side information an adapter needs to build operations
// for one action: which pool is moving capital, what asset the vault holds,
// and the pool's registration with the target venue.
type Context struct {
	PoolID       string
	VaultAsset   string
	Registration domain.VenueRegistration
}

// Adapter builds the ordered operations for one action against one protocol.
// Build must fail fast with domain.ErrVenueNotSupported for unsupported
// (kind, asset) combinations before any address derivation is attempted.
type Adapter interface {
	Kind() domain.VenueKind
	Build(ctx context.Context, action domain.Action, vctx Context) (domain.OrderedOperations, error)
}

// Registry holds one adapter per venue kind.
type Registry struct {
	adapters map[domain.VenueKind]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.VenueKind]Adapter)}
}

// NewDefaultRegistry creates a registry with the four supported protocol
// adapters, all sharing the same address book and quote source.
func NewDefaultRegistry(book *AddressBook, quotes QuoteSource) *Registry {
	r := NewRegistry()
	r.Register(NewAaveV3Adapter(book, quotes))
	r.Register(NewCompoundV3Adapter(book, quotes))
	r.Register(NewMorphoBlueAdapter(book, quotes))
	r.Register(NewYearnV3Adapter(book, quotes))
	return r
}

// Register adds or replaces the adapter for its kind.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Kind()] = a
}

// Build dispatches the action to the adapter matching the registration's
// venue kind.
func (r *Registry) Build(ctx context.Context, action domain.Action, vctx Context) (domain.OrderedOperations, error) {
	adapter, ok := r.adapters[vctx.Registration.Kind]
	if !ok {
		return domain.OrderedOperations{}, fmt.Errorf(
			"venue: kind %q: %w", vctx.Registration.Kind, domain.ErrVenueNotSupported)
	}
	return adapter.Build(ctx, action, vctx)
}

// Kinds returns the registered venue kinds, for diagnostics.
func (r *Registry) Kinds() []domain.VenueKind {
	kinds := make([]domain.VenueKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	return kinds
}
