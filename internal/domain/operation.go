package domain

// OperationKind classifies a low-level venue operation.
type OperationKind string

const (
	OpApprove  OperationKind = "approve"
	OpSwap     OperationKind = "swap"
	OpDeposit  OperationKind = "deposit"
	OpWithdraw OperationKind = "withdraw"
)

// Operation is one low-level step produced by a venue adapter. Addresses are
// hex-encoded so the data model stays transport-agnostic.
type Operation struct {
	Kind OperationKind `json:"kind"`
	// To is the contract the operation targets.
	To string `json:"to"`
	// Data is the ABI-encoded call payload.
	Data []byte `json:"data"`
	// VenueID is the venue this operation belongs to, for audit.
	VenueID string `json:"venue_id"`
}

// OrderedOperations is a venue adapter's build output: the operations to
// submit in order, plus the deduplicated address table the transport uses to
// compress the submitted payload under its size limit.
type OrderedOperations struct {
	// PoolID is the pool the bundle moves capital for.
	PoolID       string      `json:"pool_id"`
	Operations   []Operation `json:"operations"`
	AddressTable []string    `json:"address_table"`
}
