package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

// --------------------------------------------------------------------------
// EIP-712 type hashes (pre-computed keccak256 of the canonical type strings).
// --------------------------------------------------------------------------

var (
	// EIP712Domain(string name,string version,uint256 chainId)
	eip712DomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	)

	// Bundle(bytes32 poolId,bytes32 opsHash,uint256 timestamp)
	bundleTypeHash = ethcrypto.Keccak256(
		[]byte("Bundle(bytes32 poolId,bytes32 opsHash,uint256 timestamp)"),
	)
)

// BundleSigner signs reallocation operation bundles for relayer submission.
// The relayer verifies the signature before broadcasting, so only the
// holder of the registered key can move pool capital.
type BundleSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    int
	domainSep  []byte // cached EIP-712 domain separator hash
}

// NewBundleSigner creates a BundleSigner from a hex-encoded secp256k1
// private key and the target chain ID.
func NewBundleSigner(privateKeyHex string, chainID int) (*BundleSigner, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}

	addr := ethcrypto.PubkeyToAddress(pk.PublicKey)

	s := &BundleSigner{
		privateKey: pk,
		address:    addr,
		chainID:    chainID,
	}
	s.domainSep = s.buildDomainSeparator("ColloseumRelayer", "1", chainID)

	return s, nil
}

// Address returns the Ethereum address derived from the signer's private key.
func (s *BundleSigner) Address() common.Address {
	return s.address
}

// SignBundle signs the ordered operation set for a pool at the given unix
// timestamp. The returned string is a hex-encoded 65-byte signature.
func (s *BundleSigner) SignBundle(poolID string, ops domain.OrderedOperations, timestamp int64) (string, error) {
	structHash := ethcrypto.Keccak256(
		concatBytes(
			bundleTypeHash,
			ethcrypto.Keccak256([]byte(poolID)),
			OpsHash(ops),
			bigIntTo32Bytes(big.NewInt(timestamp)),
		),
	)

	digest := eip712Hash(s.domainSep, structHash)
	return s.signDigest(digest)
}

// OpsHash hashes an ordered operation set: for each operation in order,
// keccak256 of the target address padded to 32 bytes followed by the
// calldata, then keccak256 over the concatenated per-op hashes. Operation
// order is part of the hash, so a reordered bundle produces a different
// signature.
func OpsHash(ops domain.OrderedOperations) []byte {
	parts := make([][]byte, 0, len(ops.Operations))
	for _, op := range ops.Operations {
		to := common.HexToAddress(op.To)
		parts = append(parts, ethcrypto.Keccak256(
			concatBytes(common.LeftPadBytes(to.Bytes(), 32), op.Data),
		))
	}
	return ethcrypto.Keccak256(concatBytes(parts...))
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// buildDomainSeparator returns keccak256(abi.encode(typeHash, nameHash, versionHash, chainId)).
func (s *BundleSigner) buildDomainSeparator(name, version string, chainID int) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			eip712DomainTypeHash,
			ethcrypto.Keccak256([]byte(name)),
			ethcrypto.Keccak256([]byte(version)),
			bigIntTo32Bytes(big.NewInt(int64(chainID))),
		),
	)
}

// eip712Hash computes the final EIP-712 digest:
//
//	keccak256("\x19\x01" || domainSeparator || structHash)
func eip712Hash(domainSep, structHash []byte) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			[]byte{0x19, 0x01},
			domainSep,
			structHash,
		),
	)
}

// signDigest signs a 32-byte digest using secp256k1 and returns the
// hex-encoded signature (r || s || v, 65 bytes).
func (s *BundleSigner) signDigest(digest []byte) (string, error) {
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: signing: %w", err)
	}

	// go-ethereum returns v in {0,1}; EIP-712 expects v in {27,28}.
	if sig[64] < 27 {
		sig[64] += 27
	}

	return "0x" + hex.EncodeToString(sig), nil
}

// bigIntTo32Bytes returns a 32-byte big-endian representation of n.
func bigIntTo32Bytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

// concatBytes concatenates multiple byte slices into one.
func concatBytes(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range slices {
		buf = append(buf, s...)
	}
	return buf
}
