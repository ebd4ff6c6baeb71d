package venue

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// YearnV3Adapter builds operations against a Yearn v3 (ERC-4626) vault.
type YearnV3Adapter struct {
	book   *AddressBook
	quotes QuoteSource
}

func NewYearnV3Adapter(book *AddressBook, quotes QuoteSource) *YearnV3Adapter {
	return &YearnV3Adapter{book: book, quotes: quotes}
}

func (y *YearnV3Adapter) Kind() domain.VenueKind { return domain.VenueYearnV3 }

func (y *YearnV3Adapter) Build(ctx context.Context, action domain.Action, vctx Context) (domain.OrderedOperations, error) {
	reg := vctx.Registration
	if err := checkSupported(y.book, y.Kind(), reg.RequiredAsset); err != nil {
		return domain.OrderedOperations{}, err
	}

	asset, err := y.book.Asset(reg.RequiredAsset)
	if err != nil {
		return domain.OrderedOperations{}, err
	}
	vault := common.HexToAddress(reg.MarketAddress)
	subAccount := DeriveSubAccount(y.book, vctx.PoolID, reg.VenueID, reg.RequiredAsset)

	var ops []domain.Operation

	switch action.Kind {
	case domain.ActionDeposit:
		prefix, converted, err := buildConversion(ctx, y.book, y.quotes, reg.VenueID, vctx.VaultAsset, reg.RequiredAsset, action.Amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, prefix...)
		units := toBaseUnits(converted, asset.Decimals)

		ops = append(ops,
			domain.Operation{
				Kind:    domain.OpApprove,
				To:      asset.Address.Hex(),
				Data:    approveCallData(vault, units),
				VenueID: reg.VenueID,
			},
			domain.Operation{
				Kind: domain.OpDeposit,
				To:   vault.Hex(),
				Data: encodeCall("deposit(uint256,address)",
					padUint(units), padAddress(subAccount)),
				VenueID: reg.VenueID,
			},
		)

	case domain.ActionWithdraw:
		units := toBaseUnits(action.Amount, asset.Decimals)
		ops = append(ops, domain.Operation{
			Kind: domain.OpWithdraw,
			To:   vault.Hex(),
			Data: encodeCall("withdraw(uint256,address,address)",
				padUint(units), padAddress(subAccount), padAddress(subAccount)),
			VenueID: reg.VenueID,
		})
		suffix, _, err := buildConversion(ctx, y.book, y.quotes, reg.VenueID, reg.RequiredAsset, vctx.VaultAsset, action.Amount)
		if err != nil {
			return domain.OrderedOperations{}, err
		}
		ops = append(ops, suffix...)

	default:
		return domain.OrderedOperations{}, fmt.Errorf("venue/yearn: unknown action kind %q", action.Kind)
	}

	return domain.OrderedOperations{
		Operations:   ops,
		AddressTable: buildAddressTable(ops, subAccount.Hex()),
	}, nil
}
