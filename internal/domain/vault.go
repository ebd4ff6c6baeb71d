package domain

import "time"

// VaultStatus is the lifecycle state of a vault.
type VaultStatus string

const (
	VaultActive    VaultStatus = "active"
	VaultPending   VaultStatus = "pending"
	VaultPaused    VaultStatus = "paused"
	VaultClosed    VaultStatus = "closed"
	VaultConfirmed VaultStatus = "confirmed"
)

// VaultState is the persisted, mutable view of a pool. The current allocation
// is derived from the append-only allocation history, never updated in place.
type VaultState struct {
	PoolID            string            `json:"pool_id"`
	CurrentAllocation []AllocationEntry `json:"current_allocation"`
	LastUpdated       time.Time         `json:"last_updated"`
	Status            VaultStatus       `json:"status"`
}

// AllocationRecord is one append-only allocation-history row, written after
// each confirmed action.
type AllocationRecord struct {
	PoolID    string      `json:"pool_id"`
	VenueID   string      `json:"allocated_venue_id"`
	Amount    float64     `json:"amount"`
	Status    VaultStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Position is the amount of a pool's capital currently deployed at one venue.
// Positions are derived from venue state and are read-only inputs to the
// liquidity verifier.
type Position struct {
	PoolID    string    `json:"pool_id"`
	VenueID   string    `json:"venue_id"`
	Amount    float64   `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VenueRegistration describes one venue a pool is registered with, including
// the protocol-specific routing identifiers needed to build operations.
type VenueRegistration struct {
	VenueID string    `json:"venue_id"`
	Kind    VenueKind `json:"kind"`
	// RequiredAsset is the asset symbol this venue accepts.
	RequiredAsset string `json:"required_asset"`
	// MarketAddress is the venue's entry-point contract (Aave pool, Comet
	// market, Yearn vault). Hex-encoded.
	MarketAddress string `json:"market_address"`
	// ReserveID is a secondary routing identifier: the reserve address for
	// Aave, the 32-byte market id for Morpho, empty otherwise.
	ReserveID string `json:"reserve_id,omitempty"`
}

// PoolMetadata is the external lookup result for a pool: its underlying
// asset and the venues it may deploy capital to.
type PoolMetadata struct {
	PoolID          string              `json:"pool_id"`
	UnderlyingAsset string              `json:"underlying_asset"`
	Venues          []VenueRegistration `json:"venues"`
}

// Venue returns the registration for venueID, or false when the pool is not
// registered with that venue.
func (m PoolMetadata) Venue(venueID string) (VenueRegistration, bool) {
	for _, v := range m.Venues {
		if v.VenueID == venueID {
			return v, true
		}
	}
	return VenueRegistration{}, false
}
