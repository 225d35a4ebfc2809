package hiveproof

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/dwarf"
	"github.com/sudo696/ring/internal/minotaur"
)

// hashToBig interprets a chainhash.Hash (stored in the same little-endian
// byte order sha256 emits) as an unsigned big-endian integer, the same
// convention blockchain.CompactToBig's counterpart uses when comparing
// hashes against compact-encoded targets.
func hashToBig(h chainhash.Hash) *big.Int {
	var reversed chainhash.Hash
	for i := 0; i < len(h); i++ {
		reversed[i] = h[len(h)-1-i]
	}
	return new(big.Int).SetBytes(reversed[:])
}

// ChainView is the narrow accessor the validator needs from the chain index
// around the block being checked, standing in for CBlockIndex/mapBlockIndex.
type ChainView interface {
	Height() int32
	IsHiveBlock() bool
	Prev() ChainView
	// DeterministicRandString returns the chain-derived string that scopes
	// the Hive mining window rooted at this block, per GetDeterministicRandString.
	DeterministicRandString() string
}

// DCTLookup resolves a DCT by txid, the external collaborator standing in
// for the UTXO set / deep block-database drill CheckHiveProof falls back
// to when the coin isn't in the live UTXO set.
type DCTLookup interface {
	// Lookup returns the DCT's value (satoshis), its reward address, the
	// height it confirmed at, and whether a second output pays the
	// community fund (and its amount, when present).
	Lookup(txid chainhash.Hash) (DCTInfo, bool, error)
}

// DCTInfo is what the validator needs out of a resolved DCT UTXO.
type DCTInfo struct {
	Value              int64
	RewardAddress      string
	ConfirmedHeight    int32
	HasCommunityOutput bool
	CommunityAmount    int64
}

// CoinbaseView is the narrow view of a Hive block's coinbase transaction.
type CoinbaseView struct {
	Vout0Script     []byte // vout[0].scriptPubKey, the OP_RETURN proof
	RewardScript    []byte // vout[1].scriptPubKey
	RewardAddress   string // decoded from RewardScript
	VoutCount       int
	ContainsDCT     bool // true if any non-coinbase output is itself a DCT
}

// Validate runs the full Hive proof check for a candidate block extending
// prevIndex, mirroring CheckHiveProof's eight gates in order: slow-start
// height, consecutive-Hive-block cap, no-embedded-DCTs, vout shape, dwarf
// hash vs target, signature recovery, DCT resolution/maturity/reward-match,
// and dwarf-count sufficiency.
func Validate(
	prevIndex ChainView,
	blockHeight int32,
	cb CoinbaseView,
	params *chainparams.Params,
	hasher minotaur.Hasher,
	hiveTargetBits uint32,
	dcts DCTLookup,
) error {
	if blockHeight < params.LastInitialDistributionHeight+params.SlowStartBlocks {
		return fmt.Errorf("hiveproof: no hive blocks accepted until after slowstart")
	}

	hiveBlocksSincePow := 0
	cursor := prevIndex
	for cursor != nil && cursor.IsHiveBlock() {
		hiveBlocksSincePow++
		cursor = cursor.Prev()
	}
	if hiveBlocksSincePow >= params.MaxConsecutiveHiveBlocks {
		return fmt.Errorf("hiveproof: too many hive blocks without a pow block")
	}

	if cb.ContainsDCT {
		return fmt.Errorf("hiveproof: hivemined block contains DCTs")
	}

	if cb.VoutCount < 2 || cb.VoutCount > 3 {
		return fmt.Errorf("hiveproof: unexpected coinbase vout count %d", cb.VoutCount)
	}

	proof, err := Decode(cb.Vout0Script)
	if err != nil {
		return fmt.Errorf("hiveproof: %w", err)
	}

	detRandString := prevIndex.DeterministicRandString()

	dwarfHashTarget := blockchain.CompactToBig(hiveTargetBits)

	txidHash, err := chainhash.NewHashFromStr(proof.TxID)
	if err != nil {
		return fmt.Errorf("hiveproof: invalid txid encoding: %w", err)
	}

	dwarfHash := dwarf.Hash(hasher, detRandString, *txidHash, proof.DwarfNonce)
	if hashToBig(dwarfHash).Cmp(dwarfHashTarget) >= 0 {
		return fmt.Errorf("hiveproof: dwarf does not meet hash target")
	}

	if cb.RewardAddress == "" {
		return fmt.Errorf("hiveproof: couldn't extract reward address")
	}

	mhash := sha256.Sum256([]byte(detRandString))
	recoveredPub, _, err := ecdsa.RecoverCompact(proof.MessageSig[:], mhash[:])
	if err != nil {
		return fmt.Errorf("hiveproof: couldn't recover pubkey from signature: %w", err)
	}
	if err := checkKeyIDMatches(recoveredPub, cb.RewardAddress); err != nil {
		return fmt.Errorf("hiveproof: %w", err)
	}

	info, found, err := dcts.Lookup(*txidHash)
	if err != nil {
		return fmt.Errorf("hiveproof: dct lookup failed: %w", err)
	}
	if !found {
		return fmt.Errorf("hiveproof: couldn't locate indicated dct")
	}

	dctValue := info.Value
	if proof.CommunityContrib {
		if !info.HasCommunityOutput {
			return fmt.Errorf("hiveproof: community contrib was indicated but not found")
		}
		expected := (dctValue + info.CommunityAmount) / params.CommunityContribFactor
		if info.CommunityAmount != expected {
			return fmt.Errorf("hiveproof: dct pays community fund incorrect amount %d (expected %d)", info.CommunityAmount, expected)
		}
		dctValue += info.CommunityAmount
	}

	if info.ConfirmedHeight != int32(proof.DCTClaimedHeight) {
		return fmt.Errorf("hiveproof: claimed dct height %d conflicts with found height %d", proof.DCTClaimedHeight, info.ConfirmedHeight)
	}

	dctDepth := blockHeight - info.ConfirmedHeight
	if dctDepth < params.DwarfGestationBlocks {
		return fmt.Errorf("hiveproof: indicated dct is immature")
	}
	if dctDepth > params.DwarfGestationBlocks+params.DwarfLifespanBlocks {
		return fmt.Errorf("hiveproof: indicated dct is too old")
	}

	if info.RewardAddress != cb.RewardAddress {
		return fmt.Errorf("hiveproof: dct's reward address does not match claimed reward address")
	}

	if dctValue < params.DwarfCost {
		return fmt.Errorf("hiveproof: dct fee is less than the cost for a single dwarf")
	}
	dwarfCount := uint32(dctValue / params.DwarfCost)
	if proof.DwarfNonce >= dwarfCount {
		return fmt.Errorf("hiveproof: dct did not create enough dwarves for claimed nonce")
	}

	return nil
}

func checkKeyIDMatches(pub *btcec.PublicKey, address string) error {
	// The reward address encodes a hash160 of the pubkey; here we compare
	// against a pre-decoded address string supplied by the caller's
	// CoinbaseView, since address decoding is outside this package's
	// narrow consensus-math scope.
	recoveredAddr, err := AddressFromPubKey(pub)
	if err != nil {
		return fmt.Errorf("couldn't derive address from recovered pubkey: %w", err)
	}
	if recoveredAddr != address {
		return fmt.Errorf("signature mismatch: recovered address %s != claimed %s", recoveredAddr, address)
	}
	return nil
}

// AddressFromPubKey derives an address string from a recovered public key:
// the hex-encoded hash160 of its compressed serialization. Address encoding/network params are an external
// collaborator's concern in the governing spec's non-goals; this helper
// exists only so Validate can compare a recovered key against the claimed
// reward address without importing a full chaincfg network configuration.
// Callers in production wire this to the node's real address-encoding
// collaborator instead.
func AddressFromPubKey(pub *btcec.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("nil public key")
	}
	h := btcutil.Hash160(pub.SerializeCompressed())
	return fmt.Sprintf("%x", h), nil
}
