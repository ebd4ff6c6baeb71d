package venue

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func newTestBook(t *testing.T) *AddressBook {
	t.Helper()
	book, err := NewAddressBook(AddressBookConfig{
		SubAccountFactory:      "0x00000000000000000000000000000000000000f1",
		SubAccountInitCodeHash: "0x" + strings.Repeat("11", 32),
		SwapRouter:             "0x00000000000000000000000000000000000000f2",
		Assets: []AssetConfig{
			{Symbol: "USDC", Address: "0x00000000000000000000000000000000000000a1", Decimals: 6},
			{Symbol: "WETH", Address: "0x00000000000000000000000000000000000000a2", Decimals: 18},
		},
		Supported: map[string][]string{
			"aave_v3":     {"USDC", "WETH"},
			"morpho_blue": {"USDC"},
		},
	})
	if err != nil {
		t.Fatalf("NewAddressBook: %v", err)
	}
	return book
}

func TestDeriveSubAccountDeterministic(t *testing.T) {
	book := newTestBook(t)

	a := DeriveSubAccount(book, "pool-1", "v1", "USDC")
	b := DeriveSubAccount(book, "pool-1", "v1", "USDC")
	if a != b {
		t.Fatalf("derivation not deterministic: %s vs %s", a.Hex(), b.Hex())
	}
	if a == (common.Address{}) {
		t.Fatal("derived zero address")
	}
}

func TestDeriveSubAccountDistinctSeeds(t *testing.T) {
	book := newTestBook(t)
	base := DeriveSubAccount(book, "pool-1", "v1", "USDC")

	variants := []struct {
		name                  string
		pool, venueID, symbol string
	}{
		{"different pool", "pool-2", "v1", "USDC"},
		{"different venue", "pool-1", "v2", "USDC"},
		{"different asset", "pool-1", "v1", "WETH"},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got := DeriveSubAccount(book, v.pool, v.venueID, v.symbol)
			if got == base {
				t.Fatalf("seed change did not change address (%s)", got.Hex())
			}
		})
	}
}

// Length-prefixed salt segments keep shifted boundaries from colliding:
// ("ab","c") and ("a","bc") concatenate to the same bytes without prefixes.
func TestSubAccountSaltBoundaries(t *testing.T) {
	a := subAccountSalt("ab", "c", "USDC")
	b := subAccountSalt("a", "bc", "USDC")
	if a == b {
		t.Fatal("shifted segment boundaries produced the same salt")
	}
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		decimals int
		want     *big.Int
	}{
		{"whole usdc", 100, 6, big.NewInt(100_000_000)},
		{"fractional usdc", 1.5, 6, big.NewInt(1_500_000)},
		{"sub-unit dust truncated", 0.0000009, 6, big.NewInt(0)},
		{"zero", 0, 6, big.NewInt(0)},
		{"negative clamps to zero", -5, 6, big.NewInt(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toBaseUnits(tt.amount, tt.decimals)
			if got.Cmp(tt.want) != 0 {
				t.Fatalf("toBaseUnits(%v, %d) = %s, want %s", tt.amount, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestSelectorLength(t *testing.T) {
	sel := selector("approve(address,uint256)")
	if len(sel) != 4 {
		t.Fatalf("selector length = %d, want 4", len(sel))
	}
	data := encodeCall("approve(address,uint256)",
		padAddress(common.HexToAddress("0xa1")), padUint(big.NewInt(7)))
	if len(data) != 4+32+32 {
		t.Fatalf("calldata length = %d, want 68", len(data))
	}
}
