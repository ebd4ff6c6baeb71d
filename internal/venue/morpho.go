package venue

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// MorphoBlueAdapter builds operations against a Morpho Blue market. The
// registration's ReserveID is the 32-byte market id; MarketAddress is the
// singleton Morpho contract.
type MorphoBlueAdapter struct {
	book   *AddressBook
	quotes QuoteSource
}

func NewMorphoBlueAdapter(book *AddressBook, quotes QuoteSource) *MorphoBlueAdapter {
	return &MorphoBlueAdapter{book: book, quotes: quotes}
}

func (m *MorphoBlueAdapter) Kind() domain.VenueKind { return domain.VenueMorphoBlue }

func (m *MorphoBlueAdapter) Build(ctx context.Context, action domain.Action, vctx Context) (domain.OrderedOperations, error) {
	reg := vctx.Registration
	if err := checkSupported(m.book, m.Kind(), reg.RequiredAsset); err != nil {
		return domain.OrderedOperations{}, err
	}
	if reg.ReserveID == "" {
		return domain.OrderedOperations{}, fmt.Errorf("venue/morpho: venue %s missing market id", reg.VenueID)
	}

	asset, err := m.book.Asset(reg.RequiredAsset)
	if err != nil {
		return domain.OrderedOperations{}, err
	}
	morpho := common.HexToAddress(reg.MarketAddress)
	marketID := common.HexToHash(reg.ReserveID)
	subAccount := DeriveSubAccount(m.book, vctx.PoolID, reg.VenueID, reg.RequiredAsset)

	var ops []domain.Operation

	switch action.Kind {
	case domain.ActionDeposit:
		prefix, converted, err := buildConversion(ctx, m.book, m.quotes, reg.VenueID, vctx.VaultAsset, reg.RequiredAsset, action.Amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, prefix...)
		units := toBaseUnits(converted, asset.Decimals)

		ops = append(ops,
			domain.Operation{
				Kind:    domain.OpApprove,
				To:      asset.Address.Hex(),
				Data:    approveCallData(morpho, units),
				VenueID: reg.VenueID,
			},
			domain.Operation{
				Kind: domain.OpDeposit,
				To:   morpho.Hex(),
				Data: encodeCall("supply(bytes32,uint256,address)",
					padHash(marketID), padUint(units), padAddress(subAccount)),
				VenueID: reg.VenueID,
			},
		)

	case domain.ActionWithdraw:
		units := toBaseUnits(action.Amount, asset.Decimals)
		ops = append(ops, domain.Operation{
			Kind: domain.OpWithdraw,
			To:   morpho.Hex(),
			Data: encodeCall("withdraw(bytes32,uint256,address,address)",
				padHash(marketID), padUint(units), padAddress(subAccount), padAddress(subAccount)),
			VenueID: reg.VenueID,
		})
		suffix, _, err := buildConversion(ctx, m.book, m.quotes, reg.VenueID, reg.RequiredAsset, vctx.VaultAsset, action.Amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, suffix...)

	default:
		return domain.OrderedOperations{}, fmt.Errorf("venue/morpho: unknown action kind %q", action.Kind)
	}

	return domain.OrderedOperations{
		Operations:   ops,
		AddressTable: buildAddressTable(ops, subAccount.Hex(), marketID.Hex()),
	}, nil
}
