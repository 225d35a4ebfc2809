// Package difficulty implements the two independent retarget algorithms
// this chain runs side by side: the PoW simple-moving-average retarget and
// the Hive target-rescale retarget, ported bit-exactly from
// GetNextWorkRequired/GetNextHiveWorkRequired in pow.cpp.
package difficulty

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"

	"github.com/sudo696/ring/internal/chainparams"
)

// BlockView is the narrow read-only accessor the retarget algorithms need
// from a block's ancestry, matching the CBlockIndex fields pow.cpp reads
// (nBits, nTime, nHeight, is-Hive flag, and pprev chaining).
type BlockView interface {
	Height() int32
	Bits() uint32
	Time() int64
	IsHiveBlock() bool
	Prev() BlockView
}

// GetNextWorkRequired computes the PoW difficulty for the block that
// extends tip, skipping Hive blocks when walking back the retarget window
// and clamping actualTimespan to [target/3, target*3], matching
// GetNextWorkRequired (pow.cpp lines 27-86) exactly. candidateTime is the
// timestamp of the block being assembled (pblock->GetBlockTime()), needed
// to evaluate the min-difficulty exception.
func GetNextWorkRequired(tip BlockView, candidateTime int64, params *chainparams.Params) uint32 {
	powLimitBits := blockchain.BigToCompact(params.PowLimit)

	if tip == nil {
		return powLimitBits
	}

	if tip.Height() < params.LastInitialDistributionHeight {
		return blockchain.BigToCompact(params.PowLimitInitialDistribution)
	}

	if params.PowAllowMinDifficultyBlocks && candidateTime > tip.Time()+params.TargetSpacingSeconds*10 {
		return powLimitBits
	}

	// Walk back to find the most recent PoW block and the block
	// nPastBlocks PoW-blocks further back, averaging their targets.
	last := tip
	for last != nil && last.IsHiveBlock() {
		last = last.Prev()
	}
	if last == nil {
		return powLimitBits
	}

	first := last
	count := int64(0)
	for first.Prev() != nil && count < params.PastBlocksForRetarget {
		first = first.Prev()
		if first.IsHiveBlock() {
			continue
		}
		count++
	}
	if count == 0 {
		return blockchain.BigToCompact(targetFromBits(last.Bits()))
	}

	pastDifficultyAverage := targetFromBits(first.Bits())
	// Re-walk averaging every non-Hive block's target in [first, last].
	sum := new(big.Int)
	n := int64(0)
	cursor := last
	for cursor != nil {
		if !cursor.IsHiveBlock() {
			sum.Add(sum, targetFromBits(cursor.Bits()))
			n++
		}
		if cursor.Height() <= first.Height() {
			break
		}
		cursor = cursor.Prev()
	}
	if n > 0 {
		pastDifficultyAverage = new(big.Int).Div(sum, big.NewInt(n))
	}

	actualTimespan := last.Time() - first.Time()
	targetTimespan := params.TargetSpacingSeconds * count

	minTimespan := targetTimespan / 3
	maxTimespan := targetTimespan * 3
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	}
	if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	newTarget := new(big.Int).Mul(pastDifficultyAverage, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget.Set(params.PowLimit)
	}
	return blockchain.BigToCompact(newTarget)
}

// GetNextHiveWorkRequired computes the Hive target for the block that
// extends tip: walk back hiveDifficultyWindow Hive blocks (or until
// minHiveCheckBlock), average their targets, then rescale by
// totalBlockCount/targetTotalBlockCount so the observed Hive-block
// production rate converges on hiveBlockSpacingTarget, matching
// GetNextHiveWorkRequired (pow.cpp lines 90-125) exactly.
func GetNextHiveWorkRequired(tip BlockView, params *chainparams.Params) uint32 {
	hiveLimitBits := blockchain.BigToCompact(params.PowLimitHive)

	if tip == nil {
		return hiveLimitBits
	}

	sum := new(big.Int)
	hiveBlockCount := int64(0)
	totalBlockCount := int64(0)

	cursor := tip
	for cursor != nil {
		if cursor.Height() < params.MinHiveCheckBlock {
			break
		}
		totalBlockCount++
		if cursor.IsHiveBlock() {
			sum.Add(sum, targetFromBits(cursor.Bits()))
			hiveBlockCount++
			if hiveBlockCount >= int64(params.HiveDifficultyWindow) {
				break
			}
		}
		cursor = cursor.Prev()
	}

	if hiveBlockCount == 0 {
		return hiveLimitBits
	}

	avgTarget := new(big.Int).Div(sum, big.NewInt(hiveBlockCount))

	targetTotalBlockCount := params.HiveBlockSpacingTarget * hiveBlockCount / params.TargetSpacingSeconds
	if targetTotalBlockCount <= 0 {
		targetTotalBlockCount = 1
	}

	newTarget := new(big.Int).Mul(avgTarget, big.NewInt(totalBlockCount))
	newTarget.Div(newTarget, big.NewInt(targetTotalBlockCount))

	if newTarget.Cmp(params.PowLimitHive) > 0 {
		newTarget.Set(params.PowLimitHive)
	}
	if newTarget.Sign() <= 0 {
		newTarget.SetInt64(1)
	}
	return blockchain.BigToCompact(newTarget)
}

func targetFromBits(bits uint32) *big.Int {
	return blockchain.CompactToBig(bits)
}
