package venue

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

func bigZero() *big.Int { return new(big.Int) }

// CompoundV3Adapter builds operations against a Compound v3 (Comet) market.
// Each Comet market has a single base asset, so conversion is the common
// case whenever the vault holds anything else.
type CompoundV3Adapter struct {
	book   *AddressBook
	quotes QuoteSource
}

func NewCompoundV3Adapter(book *AddressBook, quotes QuoteSource) *CompoundV3Adapter {
	return &CompoundV3Adapter{book: book, quotes: quotes}
}

func (c *CompoundV3Adapter) Kind() domain.VenueKind { return domain.VenueCompoundV3 }

func (c *CompoundV3Adapter) Build(ctx context.Context, action domain.Action, vctx Context) (domain.OrderedOperations, error) {
	reg := vctx.Registration
	if err := checkSupported(c.book, c.Kind(), reg.RequiredAsset); err != nil {
		return domain.OrderedOperations{}, err
	}

	asset, err := c.book.Asset(reg.RequiredAsset)
	if err != nil {
		return domain.OrderedOperations{}, err
	}
	comet := common.HexToAddress(reg.MarketAddress)
	subAccount := DeriveSubAccount(c.book, vctx.PoolID, reg.VenueID, reg.RequiredAsset)

	var ops []domain.Operation

	switch action.Kind {
	case domain.ActionDeposit:
		prefix, converted, err := buildConversion(ctx, c.book, c.quotes, reg.VenueID, vctx.VaultAsset, reg.RequiredAsset, action.Amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, prefix...)
		units := toBaseUnits(converted, asset.Decimals)

		ops = append(ops,
			domain.Operation{
				Kind:    domain.OpApprove,
				To:      asset.Address.Hex(),
				Data:    approveCallData(comet, units),
				VenueID: reg.VenueID,
			},
			domain.Operation{
				Kind: domain.OpDeposit,
				To:   comet.Hex(),
				Data: encodeCall("supply(address,uint256)",
					padAddress(asset.Address), padUint(units)),
				VenueID: reg.VenueID,
			},
		)

	case domain.ActionWithdraw:
		units := toBaseUnits(action.Amount, asset.Decimals)
		ops = append(ops, domain.Operation{
			Kind: domain.OpWithdraw,
			To:   comet.Hex(),
			Data: encodeCall("withdraw(address,uint256)",
				padAddress(asset.Address), padUint(units)),
			VenueID: reg.VenueID,
		})
		suffix, _, err := buildConversion(ctx, c.book, c.quotes, reg.VenueID, reg.RequiredAsset, vctx.VaultAsset, action.Amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, suffix...)

	default:
		return domain.OrderedOperations{}, fmt.Errorf("venue/compound: unknown action kind %q", action.Kind)
	}

	return domain.OrderedOperations{
		Operations:   ops,
		AddressTable: buildAddressTable(ops, subAccount.Hex()),
	}, nil
}
