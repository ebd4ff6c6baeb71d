package venue

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// AaveV3Adapter builds operations against an Aave v3 pool. Deposits are
// supplied on behalf of the pool's derived sub-account; withdrawals pay out
// to the same sub-account. The registration's MarketAddress is the Aave pool
// contract and ReserveID is the reserve's underlying token address.
type AaveV3Adapter struct {
	book   *AddressBook
	quotes QuoteSource
}

// NewAaveV3Adapter creates the adapter.
func NewAaveV3Adapter(book *AddressBook, quotes QuoteSource) *AaveV3Adapter {
	return &AaveV3Adapter{book: book, quotes: quotes}
}

func (a *AaveV3Adapter) Kind() domain.VenueKind { return domain.VenueAaveV3 }

// Build produces the ordered operations for one action. When the vault's held
// asset differs from the reserve asset, a bounded conversion step is built
// around the main operation: before a deposit (so the deposit supplies the
// required asset), after a withdrawal (converting proceeds back to the
// vault's asset).
func (a *AaveV3Adapter) Build(ctx context.Context, action domain.Action, vctx Context) (domain.OrderedOperations, error) {
	reg := vctx.Registration
	if err := checkSupported(a.book, a.Kind(), reg.RequiredAsset); err != nil {
		return domain.OrderedOperations{}, err
	}

	asset, err := a.book.Asset(reg.RequiredAsset)
	if err != nil {
		return domain.OrderedOperations{}, err
	}
	pool := common.HexToAddress(reg.MarketAddress)
	subAccount := DeriveSubAccount(a.book, vctx.PoolID, reg.VenueID, reg.RequiredAsset)

	var ops []domain.Operation

	switch action.Kind {
	case domain.ActionDeposit:
		amount := action.Amount
		prefix, converted, err := buildConversion(ctx, a.book, a.quotes, reg.VenueID, vctx.VaultAsset, reg.RequiredAsset, amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, prefix...)
		units := toBaseUnits(converted, asset.Decimals)

		ops = append(ops,
			domain.Operation{
				Kind:    domain.OpApprove,
				To:      asset.Address.Hex(),
				Data:    approveCallData(pool, units),
				VenueID: reg.VenueID,
			},
			domain.Operation{
				Kind: domain.OpDeposit,
				To:   pool.Hex(),
				Data: encodeCall("supply(address,uint256,address,uint16)",
					padAddress(asset.Address), padUint(units), padAddress(subAccount), padUint(bigZero())),
				VenueID: reg.VenueID,
			},
		)

	case domain.ActionWithdraw:
		units := toBaseUnits(action.Amount, asset.Decimals)
		ops = append(ops, domain.Operation{
			Kind: domain.OpWithdraw,
			To:   pool.Hex(),
			Data: encodeCall("withdraw(address,uint256,address)",
				padAddress(asset.Address), padUint(units), padAddress(subAccount)),
			VenueID: reg.VenueID,
		})
		suffix, _, err := buildConversion(ctx, a.book, a.quotes, reg.VenueID, reg.RequiredAsset, vctx.VaultAsset, action.Amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, suffix...)

	default:
		return domain.OrderedOperations{}, fmt.Errorf("venue/aave: unknown action kind %q", action.Kind)
	}

	return domain.OrderedOperations{
		Operations:   ops,
		AddressTable: buildAddressTable(ops, subAccount.Hex(), reg.ReserveID),
	}, nil
}
