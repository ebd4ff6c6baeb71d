package venue

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// Quote is a conversion quote from the swap router's quote service.
type Quote struct {
	// AmountOut is the expected output in display units of the target asset.
	AmountOut float64
	// MinAmountOut is the bounded worst-case output the swap will accept.
	MinAmountOut float64
	// CallData is the router calldata executing the swap.
	CallData []byte
}

// QuoteSource produces bounded best-effort conversion quotes.
type QuoteSource interface {
	Quote(ctx context.Context, fromAsset, toAsset string, amount float64) (Quote, error)
}

// buildConversion returns the approve+swap prefix converting amount of the
// vault's asset into the venue's required asset, or nil when no conversion is
// needed. The amount passed downstream should then be the quote's AmountOut.
func buildConversion(
	ctx context.Context,
	book *AddressBook,
	quotes QuoteSource,
	venueID, fromAsset, toAsset string,
	amount float64,
) ([]domain.Operation, float64, error) {
	if fromAsset == toAsset {
		return nil, amount, nil
	}
	if quotes == nil {
		return nil, 0, fmt.Errorf("venue: conversion %s->%s required but no quote source configured", fromAsset, toAsset)
	}

	from, err := book.Asset(fromAsset)
	if err != nil {
		return nil, 0, err
	}
	if _, err := book.Asset(toAsset); err != nil {
		return nil, 0, err
	}

	quote, err := quotes.Quote(ctx, fromAsset, toAsset, amount)
	if err != nil {
		return nil, 0, fmt.Errorf("venue: quote %s->%s: %w", fromAsset, toAsset, err)
	}

	ops := []domain.Operation{
		{
			Kind:    domain.OpApprove,
			To:      from.Address.Hex(),
			Data:    approveCallData(book.SwapRouter, toBaseUnits(amount, from.Decimals)),
			VenueID: venueID,
		},
		{
			Kind:    domain.OpSwap,
			To:      book.SwapRouter.Hex(),
			Data:    quote.CallData,
			VenueID: venueID,
		},
	}
	return ops, quote.AmountOut, nil
}

// approveCallData encodes ERC-20 approve(spender, amount).
func approveCallData(spender common.Address, amount *big.Int) []byte {
	return encodeCall("approve(address,uint256)", padAddress(spender), padUint(amount))
}
