package venue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

type fakeQuoteSource struct {
	calls int
	err   error
	// rate scales the input amount into AmountOut.
	rate float64
}

func (f *fakeQuoteSource) Quote(ctx context.Context, fromAsset, toAsset string, amount float64) (Quote, error) {
	f.calls++
	if f.err != nil {
		return Quote{}, f.err
	}
	out := amount * f.rate
	return Quote{
		AmountOut:    out,
		MinAmountOut: out * 0.995,
		CallData:     []byte(fmt.Sprintf("swap:%s->%s:%v", fromAsset, toAsset, amount)),
	}, nil
}

func aaveContext(vaultAsset string) Context {
	return Context{
		PoolID:     "pool-1",
		VaultAsset: vaultAsset,
		Registration: domain.VenueRegistration{
			VenueID:       "v1",
			Kind:          domain.VenueAaveV3,
			RequiredAsset: "USDC",
			MarketAddress: "0x00000000000000000000000000000000000000b1",
			ReserveID:     "0x00000000000000000000000000000000000000a1",
		},
	}
}

func opKinds(ops []domain.Operation) []domain.OperationKind {
	kinds := make([]domain.OperationKind, len(ops))
	for i, op := range ops {
		kinds[i] = op.Kind
	}
	return kinds
}

func kindsEqual(got, want []domain.OperationKind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestAaveDepositNoConversion(t *testing.T) {
	book := newTestBook(t)
	quotes := &fakeQuoteSource{rate: 1}
	adapter := NewAaveV3Adapter(book, quotes)

	action := domain.Action{VenueID: "v1", Kind: domain.ActionDeposit, Amount: 100}
	ops, err := adapter.Build(context.Background(), action, aaveContext("USDC"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if quotes.calls != 0 {
		t.Fatalf("quote source called %d times for same-asset deposit", quotes.calls)
	}
	want := []domain.OperationKind{domain.OpApprove, domain.OpDeposit}
	if got := opKinds(ops.Operations); !kindsEqual(got, want) {
		t.Fatalf("operation kinds = %v, want %v", got, want)
	}

	asset, _ := book.Asset("USDC")
	if ops.Operations[0].To != asset.Address.Hex() {
		t.Errorf("approve targets %s, want asset contract %s", ops.Operations[0].To, asset.Address.Hex())
	}
	if ops.Operations[1].To != "0x00000000000000000000000000000000000000b1" {
		t.Errorf("deposit targets %s, want pool contract", ops.Operations[1].To)
	}
}

func TestAaveDepositWithConversion(t *testing.T) {
	book := newTestBook(t)
	quotes := &fakeQuoteSource{rate: 2000} // WETH -> USDC
	adapter := NewAaveV3Adapter(book, quotes)

	action := domain.Action{VenueID: "v1", Kind: domain.ActionDeposit, Amount: 1}
	ops, err := adapter.Build(context.Background(), action, aaveContext("WETH"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if quotes.calls != 1 {
		t.Fatalf("quote source calls = %d, want 1", quotes.calls)
	}

	// Conversion prefix comes first so the deposit supplies the required
	// asset: approve router, swap, then approve pool, supply.
	want := []domain.OperationKind{domain.OpApprove, domain.OpSwap, domain.OpApprove, domain.OpDeposit}
	if got := opKinds(ops.Operations); !kindsEqual(got, want) {
		t.Fatalf("operation kinds = %v, want %v", got, want)
	}
	if ops.Operations[1].To != book.SwapRouter.Hex() {
		t.Errorf("swap targets %s, want router %s", ops.Operations[1].To, book.SwapRouter.Hex())
	}
	if string(ops.Operations[1].Data) != "swap:WETH->USDC:1" {
		t.Errorf("swap calldata = %q", ops.Operations[1].Data)
	}
}

func TestAaveWithdrawConversionSuffix(t *testing.T) {
	book := newTestBook(t)
	quotes := &fakeQuoteSource{rate: 0.0005} // USDC -> WETH
	adapter := NewAaveV3Adapter(book, quotes)

	action := domain.Action{VenueID: "v1", Kind: domain.ActionWithdraw, Amount: 500}
	ops, err := adapter.Build(context.Background(), action, aaveContext("WETH"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Withdrawal proceeds are converted back to the vault's asset after the
	// main operation.
	want := []domain.OperationKind{domain.OpWithdraw, domain.OpApprove, domain.OpSwap}
	if got := opKinds(ops.Operations); !kindsEqual(got, want) {
		t.Fatalf("operation kinds = %v, want %v", got, want)
	}
}

func TestAdapterUnsupportedAssetFailsFast(t *testing.T) {
	book := newTestBook(t)
	quotes := &fakeQuoteSource{rate: 1}
	adapter := NewMorphoBlueAdapter(book, quotes)

	vctx := Context{
		PoolID:     "pool-1",
		VaultAsset: "WETH",
		Registration: domain.VenueRegistration{
			VenueID:       "v1",
			Kind:          domain.VenueMorphoBlue,
			RequiredAsset: "WETH", // morpho only supports USDC in the test book
			MarketAddress: "0x00000000000000000000000000000000000000b2",
			ReserveID:     "0x" + "22",
		},
	}
	action := domain.Action{VenueID: "v1", Kind: domain.ActionDeposit, Amount: 10}
	_, err := adapter.Build(context.Background(), action, vctx)
	if !errors.Is(err, domain.ErrVenueNotSupported) {
		t.Fatalf("err = %v, want ErrVenueNotSupported", err)
	}
	if quotes.calls != 0 {
		t.Fatal("quote source called despite unsupported combination")
	}
}

func TestConversionRequiresQuoteSource(t *testing.T) {
	book := newTestBook(t)
	adapter := NewAaveV3Adapter(book, nil)

	action := domain.Action{VenueID: "v1", Kind: domain.ActionDeposit, Amount: 10}
	_, err := adapter.Build(context.Background(), action, aaveContext("WETH"))
	if err == nil {
		t.Fatal("expected error when conversion is needed without a quote source")
	}
}

func TestMorphoRequiresMarketID(t *testing.T) {
	book := newTestBook(t)
	adapter := NewMorphoBlueAdapter(book, &fakeQuoteSource{rate: 1})

	vctx := Context{
		PoolID:     "pool-1",
		VaultAsset: "USDC",
		Registration: domain.VenueRegistration{
			VenueID:       "v1",
			Kind:          domain.VenueMorphoBlue,
			RequiredAsset: "USDC",
			MarketAddress: "0x00000000000000000000000000000000000000b2",
		},
	}
	action := domain.Action{VenueID: "v1", Kind: domain.ActionDeposit, Amount: 10}
	_, err := adapter.Build(context.Background(), action, vctx)
	if err == nil {
		t.Fatal("expected error for missing market id")
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	registry := NewRegistry()
	vctx := Context{
		Registration: domain.VenueRegistration{Kind: domain.VenueAaveV3},
	}
	_, err := registry.Build(context.Background(), domain.Action{}, vctx)
	if !errors.Is(err, domain.ErrVenueNotSupported) {
		t.Fatalf("err = %v, want ErrVenueNotSupported", err)
	}
}

func TestDefaultRegistryCoversAllKinds(t *testing.T) {
	registry := NewDefaultRegistry(newTestBook(t), nil)
	kinds := registry.Kinds()
	want := map[domain.VenueKind]bool{
		domain.VenueAaveV3:     false,
		domain.VenueCompoundV3: false,
		domain.VenueMorphoBlue: false,
		domain.VenueYearnV3:    false,
	}
	for _, k := range kinds {
		want[k] = true
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("kind %s not registered", k)
		}
	}
}

func TestBuildAddressTable(t *testing.T) {
	ops := []domain.Operation{
		{To: "0xaa"},
		{To: "0xbb"},
		{To: "0xaa"}, // duplicate
		{To: "0xcc"},
	}
	table := buildAddressTable(ops, "0xdd", "0xbb", "")

	want := []string{"0xaa", "0xbb", "0xcc", "0xdd"}
	if len(table) != len(want) {
		t.Fatalf("table = %v, want %v", table, want)
	}
	for i := range want {
		if table[i] != want[i] {
			t.Fatalf("table[%d] = %q, want %q (full table %v)", i, table[i], want[i], table)
		}
	}
}

func TestAddressBookValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  AddressBookConfig
	}{
		{
			name: "bad factory address",
			cfg: AddressBookConfig{
				SubAccountFactory: "not-hex",
				SwapRouter:        "0x00000000000000000000000000000000000000f2",
			},
		},
		{
			name: "bad asset address",
			cfg: AddressBookConfig{
				SubAccountFactory: "0x00000000000000000000000000000000000000f1",
				SwapRouter:        "0x00000000000000000000000000000000000000f2",
				Assets:            []AssetConfig{{Symbol: "USDC", Address: "0xzz", Decimals: 6}},
			},
		},
		{
			name: "bad decimals",
			cfg: AddressBookConfig{
				SubAccountFactory: "0x00000000000000000000000000000000000000f1",
				SwapRouter:        "0x00000000000000000000000000000000000000f2",
				Assets:            []AssetConfig{{Symbol: "USDC", Address: "0x00000000000000000000000000000000000000a1", Decimals: 0}},
			},
		},
		{
			name: "supported references unknown asset",
			cfg: AddressBookConfig{
				SubAccountFactory: "0x00000000000000000000000000000000000000f1",
				SwapRouter:        "0x00000000000000000000000000000000000000f2",
				Supported:         map[string][]string{"aave_v3": {"DAI"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAddressBook(tt.cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
