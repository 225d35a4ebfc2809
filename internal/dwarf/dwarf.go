// Package dwarf implements the DCT/dwarf domain model and the binning
// algorithm that splits mature dwarves across worker goroutines, grounded
// on BusyDwarves in the original miner.cpp. The double-Minotaur dwarf hash
// itself lives here too, because both the Hive Miner (search) and the Hive
// Proof Validator (recompute-and-compare) must agree on it bit-for-bit.
package dwarf

import (
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/sudo696/ring/internal/minotaur"
)

// Status is a DCT's maturity state, driven by chain depth against
// DwarfGestationBlocks/DwarfLifespanBlocks.
type Status int

const (
	StatusImmature Status = iota
	StatusMature
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusImmature:
		return "immature"
	case StatusMature:
		return "mature"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// DCT is a Dwarf-Creation Transaction: a confirmed payment to the
// dwarf-creation address that mints DwarfCount virtual work units.
type DCT struct {
	TxID              chainhash.Hash
	RewardAddress     string
	CommunityContrib  bool
	DwarfCount        uint32
	ConfirmedHeight    int32
	Status            Status
}

// StatusAt computes maturity relative to the current chain height, matching
// CDwarfCreationTransactionInfo::dwarfStatus derivation upstream.
func StatusAt(confirmedHeight, currentHeight, gestationBlocks, lifespanBlocks int32) Status {
	depth := currentHeight - confirmedHeight
	if depth < gestationBlocks {
		return StatusImmature
	}
	if depth > gestationBlocks+lifespanBlocks {
		return StatusExpired
	}
	return StatusMature
}

// Range is a contiguous work unit within one DCT's dwarf index space,
// handed to exactly one worker goroutine for the parallel search.
type Range struct {
	TxID             chainhash.Hash
	RewardAddress    string
	CommunityContrib bool
	Offset           uint32
	Count            uint32
}

// ResolveThreadCount applies the -hivecheckthreads sentinel semantics from
// §4.3 step 2: -2 means cores-1 (min 1), 0 means 1, any other out-of-range
// value falls back to cores, and an in-range positive value passes through.
func ResolveThreadCount(requested, cores int) int {
	switch {
	case requested == -2:
		if cores-1 < 1 {
			return 1
		}
		return cores - 1
	case requested == 0:
		return 1
	case requested < 0 || requested > cores:
		return cores
	default:
		return requested
	}
}

// BinDwarves greedily packs mature DCTs into threadCount bins of
// ceil(totalDwarves/threadCount) dwarves each, splitting a DCT across a bin
// boundary when it doesn't fit the remaining space — the exact algorithm
// from BusyDwarves' binning loop. dcts must already be filtered to mature
// status; order is preserved.
func BinDwarves(dcts []DCT, threadCount int) [][]Range {
	if threadCount <= 0 || len(dcts) == 0 {
		return nil
	}

	totalDwarves := 0
	for _, d := range dcts {
		totalDwarves += int(d.DwarfCount)
	}
	if totalDwarves == 0 {
		return nil
	}

	perBin := (totalDwarves + threadCount - 1) / threadCount

	var bins [][]Range
	idx := 0
	offset := uint32(0)
	for idx < len(dcts) {
		var bin []Range
		binCount := 0
		for idx < len(dcts) {
			dct := dcts[idx]
			remaining := dct.DwarfCount - offset
			spaceLeft := perBin - binCount
			if spaceLeft <= 0 {
				break
			}
			if int(remaining) <= spaceLeft {
				bin = append(bin, Range{
					TxID:             dct.TxID,
					RewardAddress:    dct.RewardAddress,
					CommunityContrib: dct.CommunityContrib,
					Offset:           offset,
					Count:            remaining,
				})
				binCount += int(remaining)
				offset = 0
				idx++
			} else {
				bin = append(bin, Range{
					TxID:             dct.TxID,
					RewardAddress:    dct.RewardAddress,
					CommunityContrib: dct.CommunityContrib,
					Offset:           offset,
					Count:            uint32(spaceLeft),
				})
				offset += uint32(spaceLeft)
				break
			}
		}
		if len(bin) > 0 {
			bins = append(bins, bin)
		}
	}
	return bins
}

// Hash computes the double-Minotaur dwarf hash for dwarf index i within the
// DCT identified by txid, scoped by detRandString, matching §4.3 step 3 and
// CheckHiveProof's recomputation exactly:
//
//	h1 = MinotaurHashArbitrary(detRandString || txid || decimal(i))
//	h2 = MinotaurHashArbitrary(hex(h1))
func Hash(h minotaur.Hasher, detRandString string, txid chainhash.Hash, i uint32) chainhash.Hash {
	h1 := h.HashArbitrary(detRandString + txid.String() + strconv.FormatUint(uint64(i), 10))
	h2 := h.HashArbitrary(fmt.Sprintf("%x", h1[:]))
	return h2
}
