package venue

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// DeriveSubAccount computes the pool's deterministic sub-account for one
// venue: CREATE2 against the factory with a salt bound to the pool, venue,
// and asset. It is a pure function of well-known seeds so derived addresses
// are fully reproducible for auditing.
func DeriveSubAccount(book *AddressBook, poolID, venueID, asset string) common.Address {
	salt := subAccountSalt(poolID, venueID, asset)
	return ethcrypto.CreateAddress2(book.SubAccountFactory, salt, book.SubAccountInitCodeHash.Bytes())
}

// subAccountSalt is keccak256(poolID ‖ venueID ‖ asset) with length-prefixed
// segments so ("ab","c") and ("a","bc") cannot collide.
func subAccountSalt(poolID, venueID, asset string) [32]byte {
	var buf []byte
	for _, seg := range []string{poolID, venueID, asset} {
		buf = append(buf, byte(len(seg)))
		buf = append(buf, seg...)
	}
	var salt [32]byte
	copy(salt[:], ethcrypto.Keccak256(buf))
	return salt
}

// -- calldata helpers shared by the adapters --

// selector returns the 4-byte function selector for a canonical signature.
func selector(signature string) []byte {
	return ethcrypto.Keccak256([]byte(signature))[:4]
}

// encodeCall concatenates a selector with 32-byte-padded arguments.
func encodeCall(sig string, args ...[]byte) []byte {
	data := make([]byte, 0, 4+32*len(args))
	data = append(data, selector(sig)...)
	for _, a := range args {
		data = append(data, a...)
	}
	return data
}

// padAddress left-pads an address to a 32-byte ABI word.
func padAddress(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

// padUint left-pads a big integer to a 32-byte ABI word.
func padUint(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

// padHash passes a 32-byte word through unchanged.
func padHash(h common.Hash) []byte {
	return h.Bytes()
}

// toBaseUnits converts a display amount to integer base units for the asset's
// decimals, truncating any sub-unit dust.
func toBaseUnits(amount float64, decimals int) *big.Int {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Mul(big.NewFloat(amount), scale)
	units, _ := scaled.Int(nil)
	if units.Sign() < 0 {
		return big.NewInt(0)
	}
	return units
}
