// Package chainparams holds the static, per-network consensus rules
// consumed by the assembler, both miners, and the difficulty/validator
// packages. A Params value is constructed once at process start and passed
// down as a read-only dependency, mirroring the teacher's Params+Validate
// idiom (internal/core/block/difficulty/policy.go) rather than a package
// global.
package chainparams

import (
	"fmt"
	"math/big"
)

// Params is the full set of consensus constants for one network.
type Params struct {
	Name string

	// PoW limits, as the maximum target (minimum difficulty) a block may
	// carry. PowLimitInitialDistribution governs the pre-slow-start era;
	// PowLimitHive bounds the easier Hive target.
	PowLimit                    *big.Int
	PowLimitInitialDistribution *big.Int
	PowLimitHive                *big.Int

	// PoW retarget (GetNextWorkRequired).
	TargetSpacingSeconds        int64
	PastBlocksForRetarget       int64 // nPastBlocks, 24 upstream
	PowAllowMinDifficultyBlocks bool  // testnet-only min-difficulty exception

	// Hive retarget (GetNextHiveWorkRequired).
	HiveDifficultyWindow    int
	HiveBlockSpacingTarget  int64
	MinHiveCheckBlock       int32
	MaxConsecutiveHiveBlocks int

	// Slow-start / initial distribution.
	LastInitialDistributionHeight int32
	SlowStartBlocks                int32

	// Dwarf economics.
	DwarfGestationBlocks   int32
	DwarfLifespanBlocks    int32
	DwarfCost              int64 // satoshis per dwarf
	CommunityContribFactor int64

	// Addresses (base58/bech32-encoded; resolved to scripts by callers).
	DwarfCreationAddress string
	CommunityAddress     string

	// Header nonce markers written before search (PoW leaves 0).
	HiveNonceMarker uint32
	PopNonceMarker  uint32

	// Block resource limits.
	MaxBlockWeight     int64
	MaxBlockSigOpsCost int64
	WitnessScaleFactor int64

	// CoinbaseFlags is appended to the PoW coinbase scriptSig each time the
	// miner rewrites it with a new extra-nonce (miner tag).
	CoinbaseFlags []byte
}

// Validate reports the first structurally invalid field. It does not attempt
// to validate cross-field economic sanity beyond what consensus code itself
// depends on not panicking.
func (p *Params) Validate() error {
	if p.PowLimit == nil || p.PowLimit.Sign() <= 0 {
		return fmt.Errorf("chainparams: PowLimit must be positive")
	}
	if p.PowLimitInitialDistribution == nil || p.PowLimitInitialDistribution.Sign() <= 0 {
		return fmt.Errorf("chainparams: PowLimitInitialDistribution must be positive")
	}
	if p.PowLimitHive == nil || p.PowLimitHive.Sign() <= 0 {
		return fmt.Errorf("chainparams: PowLimitHive must be positive")
	}
	if p.TargetSpacingSeconds <= 0 {
		return fmt.Errorf("chainparams: TargetSpacingSeconds must be positive")
	}
	if p.PastBlocksForRetarget <= 0 {
		return fmt.Errorf("chainparams: PastBlocksForRetarget must be positive")
	}
	if p.HiveDifficultyWindow <= 0 {
		return fmt.Errorf("chainparams: HiveDifficultyWindow must be positive")
	}
	if p.HiveBlockSpacingTarget <= 0 {
		return fmt.Errorf("chainparams: HiveBlockSpacingTarget must be positive")
	}
	if p.MaxConsecutiveHiveBlocks <= 0 {
		return fmt.Errorf("chainparams: MaxConsecutiveHiveBlocks must be positive")
	}
	if p.DwarfGestationBlocks < 0 {
		return fmt.Errorf("chainparams: DwarfGestationBlocks must be non-negative")
	}
	if p.DwarfLifespanBlocks <= 0 {
		return fmt.Errorf("chainparams: DwarfLifespanBlocks must be positive")
	}
	if p.DwarfCost <= 0 {
		return fmt.Errorf("chainparams: DwarfCost must be positive")
	}
	if p.CommunityContribFactor <= 1 {
		return fmt.Errorf("chainparams: CommunityContribFactor must be greater than 1")
	}
	if p.DwarfCreationAddress == "" {
		return fmt.Errorf("chainparams: DwarfCreationAddress must be set")
	}
	if p.CommunityAddress == "" {
		return fmt.Errorf("chainparams: CommunityAddress must be set")
	}
	if p.MaxBlockWeight < 8000 {
		return fmt.Errorf("chainparams: MaxBlockWeight must leave room for coinbase reservation")
	}
	if p.MaxBlockSigOpsCost <= 0 {
		return fmt.Errorf("chainparams: MaxBlockSigOpsCost must be positive")
	}
	if p.WitnessScaleFactor <= 0 {
		return fmt.Errorf("chainparams: WitnessScaleFactor must be positive")
	}
	return nil
}

// ClampBlockMaxWeight enforces the [4000, MaxBlockWeight-4000] sanity band
// from §3's invariants, mirroring BlockAssembler::BlockAssembler's clamp of
// the configured nBlockMaxWeight.
func (p *Params) ClampBlockMaxWeight(requested int64) int64 {
	lo := int64(4000)
	hi := p.MaxBlockWeight - 4000
	if requested < lo {
		return lo
	}
	if requested > hi {
		return hi
	}
	return requested
}

// RegressionTestParams returns a small, fast-retargeting parameter set
// intended for unit tests and local experimentation, mirroring the
// teacher's pattern of exposing ready-made, named parameter presets.
func RegressionTestParams() *Params {
	return &Params{
		Name:                           "regtest",
		PowLimit:                       new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1)),
		PowLimitInitialDistribution:    new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1)),
		PowLimitHive:                   new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1)),
		TargetSpacingSeconds:           150,
		PastBlocksForRetarget:          24,
		PowAllowMinDifficultyBlocks:    true,
		HiveDifficultyWindow:           24,
		HiveBlockSpacingTarget:         300,
		MinHiveCheckBlock:              0,
		MaxConsecutiveHiveBlocks:       2,
		LastInitialDistributionHeight: 0,
		SlowStartBlocks:                0,
		DwarfGestationBlocks:           2,
		DwarfLifespanBlocks:            20,
		DwarfCost:                      100_000_000,
		CommunityContribFactor:         10,
		DwarfCreationAddress:           "RDwArfCreatIonAddress00000000000",
		CommunityAddress:               "RComMunItyAddress000000000000000",
		HiveNonceMarker:                0x01BEEF00,
		PopNonceMarker:                 0x02BEEF00,
		MaxBlockWeight:                4_000_000,
		MaxBlockSigOpsCost:             80_000,
		WitnessScaleFactor:             4,
		CoinbaseFlags:                  []byte("/ring-go/"),
	}
}
