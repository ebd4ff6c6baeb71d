package venue

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// AssetInfo describes one ERC-20 the vault or a venue can hold.
type AssetInfo struct {
	Symbol   string
	Address  common.Address
	Decimals int
}

// AddressBook is the immutable venue-addressing configuration, loaded once at
// process start and passed by reference into the adapters. It is never
// mutated at runtime.
type AddressBook struct {
	// SubAccountFactory deploys pool sub-accounts; derivation is CREATE2
	// against this address.
	SubAccountFactory common.Address
	// SubAccountInitCodeHash is the keccak256 of the sub-account proxy init
	// code, fixed per deployment.
	SubAccountInitCodeHash common.Hash
	// SwapRouter executes asset-conversion steps.
	SwapRouter common.Address

	assets map[string]AssetInfo
	// supported lists the asset symbols each venue kind accepts.
	supported map[domain.VenueKind]map[string]struct{}
}

// AddressBookConfig is the raw, hex-string form an AddressBook is built from
// (the shape the TOML config carries).
type AddressBookConfig struct {
	SubAccountFactory      string
	SubAccountInitCodeHash string
	SwapRouter             string
	Assets                 []AssetConfig
	Supported              map[string][]string // venue kind -> asset symbols
}

// AssetConfig is one asset entry in the raw config.
type AssetConfig struct {
	Symbol   string
	Address  string
	Decimals int
}

// NewAddressBook validates the raw config and builds the immutable book.
func NewAddressBook(cfg AddressBookConfig) (*AddressBook, error) {
	if !common.IsHexAddress(cfg.SubAccountFactory) {
		return nil, fmt.Errorf("venue: invalid sub-account factory address %q", cfg.SubAccountFactory)
	}
	if !common.IsHexAddress(cfg.SwapRouter) {
		return nil, fmt.Errorf("venue: invalid swap router address %q", cfg.SwapRouter)
	}

	book := &AddressBook{
		SubAccountFactory:      common.HexToAddress(cfg.SubAccountFactory),
		SubAccountInitCodeHash: common.HexToHash(cfg.SubAccountInitCodeHash),
		SwapRouter:             common.HexToAddress(cfg.SwapRouter),
		assets:                 make(map[string]AssetInfo, len(cfg.Assets)),
		supported:              make(map[domain.VenueKind]map[string]struct{}, len(cfg.Supported)),
	}

	for _, a := range cfg.Assets {
		if !common.IsHexAddress(a.Address) {
			return nil, fmt.Errorf("venue: asset %s: invalid address %q", a.Symbol, a.Address)
		}
		if a.Decimals <= 0 || a.Decimals > 30 {
			return nil, fmt.Errorf("venue: asset %s: invalid decimals %d", a.Symbol, a.Decimals)
		}
		book.assets[a.Symbol] = AssetInfo{
			Symbol:   a.Symbol,
			Address:  common.HexToAddress(a.Address),
			Decimals: a.Decimals,
		}
	}

	for kind, symbols := range cfg.Supported {
		set := make(map[string]struct{}, len(symbols))
		for _, s := range symbols {
			if _, ok := book.assets[s]; !ok {
				return nil, fmt.Errorf("venue: kind %s supports unknown asset %q", kind, s)
			}
			set[s] = struct{}{}
		}
		book.supported[domain.VenueKind(kind)] = set
	}

	return book, nil
}

// Asset returns the asset info for a symbol.
func (b *AddressBook) Asset(symbol string) (AssetInfo, error) {
	info, ok := b.assets[symbol]
	if !ok {
		return AssetInfo{}, fmt.Errorf("venue: unknown asset %q: %w", symbol, domain.ErrNotFound)
	}
	return info, nil
}

// Supports reports whether the venue kind accepts the asset symbol.
func (b *AddressBook) Supports(kind domain.VenueKind, symbol string) bool {
	set, ok := b.supported[kind]
	if !ok {
		return false
	}
	_, ok = set[symbol]
	return ok
}

// checkSupported is the shared fail-fast gate every adapter runs before any
// address derivation.
func checkSupported(book *AddressBook, kind domain.VenueKind, asset string) error {
	if !book.Supports(kind, asset) {
		return fmt.Errorf("venue: kind %s, asset %s: %w", kind, asset, domain.ErrVenueNotSupported)
	}
	return nil
}
