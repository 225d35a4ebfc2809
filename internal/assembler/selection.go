package assembler

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/sudo696/ring/internal/mempool"
)

// modifiedEntry tracks an ancestor package's aggregates after some of its
// ancestors have already been included in the block, mirroring the
// Modified-Entry Set in §3's data model / CTxMemPool::mapModifiedTx.
type modifiedEntry struct {
	entry            *mempool.Entry
	ancestorSize     int64
	ancestorFee      int64
	ancestorSigOps   int64
}

func (m *modifiedEntry) feeRate() float64 {
	if m.ancestorSize == 0 {
		return 0
	}
	return float64(m.ancestorFee) / float64(m.ancestorSize)
}

// addPackageTxs runs the ancestor-feerate package-selection loop, porting
// BlockAssembler::addPackageTxs (miner.cpp lines 398-526): at each step,
// compare the best candidate from the mempool's native ancestor-feerate
// ordering against the best candidate from the modified-entry set, prefer
// whichever has the better ancestor feerate, and admit its not-yet-included
// ancestor package if it passes every check in TestPackageTransactions.
func (a *Assembler) addPackageTxs(state *blockState, height int32, lockTimeCutoff int64) {
	if a.Mempool == nil {
		return
	}

	ordered := a.Mempool.AncestorOrdered()
	mempoolIdx := 0

	modified := make(map[chainhash.Hash]*modifiedEntry)
	failed := make(map[chainhash.Hash]bool)

	consecutiveFailures := 0

	for {
		if consecutiveFailures > maxConsecutiveFailures &&
			state.weight > a.opts.BlockMaxWeight-4000 {
			break
		}

		// Advance past mempool entries already decided on.
		for mempoolIdx < len(ordered) {
			txid := ordered[mempoolIdx].TxID
			if state.inBlock[txid] || failed[txid] || modified[txid] != nil {
				mempoolIdx++
				continue
			}
			break
		}

		var candidate *mempool.Entry
		var candidateFeeRate float64
		var fromModified *modifiedEntry

		if mempoolIdx < len(ordered) {
			candidate = ordered[mempoolIdx]
			candidateFeeRate = candidate.AncestorFeeRate()
		}

		for _, m := range modified {
			if candidate == nil || m.feeRate() > candidateFeeRate {
				candidate = m.entry
				candidateFeeRate = m.feeRate()
				fromModified = m
			}
		}

		if candidate == nil {
			break
		}

		if fromModified == nil {
			mempoolIdx++
		} else {
			delete(modified, candidate.TxID)
		}

		if state.inBlock[candidate.TxID] || failed[candidate.TxID] {
			continue
		}

		pkg := a.resolvePackage(candidate, state.inBlock)

		switch a.testPackage(pkg, state, candidateFeeRate) {
		case packageBelowFeeFloor:
			// The mempool is ancestor-feerate ordered, so once a candidate
			// misses the floor every remaining candidate does too.
			return
		case packageFailed:
			failed[candidate.TxID] = true
			consecutiveFailures++
			continue
		}

		if !a.testPackageTransactions(pkg, height, lockTimeCutoff, state) {
			failed[candidate.TxID] = true
			consecutiveFailures++
			continue
		}

		a.addToBlock(pkg, state)
		a.updatePackagesForAdded(pkg, modified, state)
		consecutiveFailures = 0
	}
}

// resolvePackage returns candidate plus its not-yet-included ancestors,
// sorted parents-first (ascending ancestor count) so AddToBlock can append
// them in dependency order — SortForBlock's effect.
func (a *Assembler) resolvePackage(candidate *mempool.Entry, inBlock map[chainhash.Hash]bool) []*mempool.Entry {
	pkg := []*mempool.Entry{candidate}
	seen := map[chainhash.Hash]bool{candidate.TxID: true}

	queue := append([]chainhash.Hash{}, candidate.Ancestors()...)
	for len(queue) > 0 {
		txid := queue[0]
		queue = queue[1:]
		if seen[txid] || inBlock[txid] {
			continue
		}
		seen[txid] = true
		entry, ok := a.Mempool.Get(txid)
		if !ok {
			continue
		}
		pkg = append(pkg, entry)
		queue = append(queue, entry.Ancestors()...)
	}

	sortForBlock(pkg)
	return pkg
}

func sortForBlock(pkg []*mempool.Entry) {
	for i := 1; i < len(pkg); i++ {
		for j := i; j > 0 && pkg[j-1].AncestorCount > pkg[j].AncestorCount; j-- {
			pkg[j-1], pkg[j] = pkg[j], pkg[j-1]
		}
	}
}

func packageTotals(pkg []*mempool.Entry) (size, fee, sigOps int64) {
	for _, e := range pkg {
		size += e.SizeBytes
		fee += e.Fee
		sigOps += e.SigOpsCost
	}
	return
}

// packageCheckResult is testPackage's verdict. packageBelowFeeFloor is
// distinct from packageFailed because the mempool's ancestor-feerate
// ordering means a sub-floor package ends selection entirely, rather than
// just being skipped.
type packageCheckResult int

const (
	packageOK packageCheckResult = iota
	packageFailed
	packageBelowFeeFloor
)

// testPackage implements the feerate-floor/weight/sigops admission checks,
// TestPackage in miner.cpp: a package below blockMinFeeRate terminates
// addPackageTxs outright (miner.cpp's `return`), since every remaining
// candidate in ancestor-feerate order is no better.
func (a *Assembler) testPackage(pkg []*mempool.Entry, state *blockState, packageFeeRate float64) packageCheckResult {
	if packageFeeRate < a.opts.BlockMinFeeRate {
		return packageBelowFeeFloor
	}
	size, _, sigOps := packageTotals(pkg)
	if state.weight+4*size >= a.opts.BlockMaxWeight {
		return packageFailed
	}
	if state.sigOpsCost+sigOps >= a.Params.MaxBlockSigOpsCost {
		return packageFailed
	}
	return packageOK
}

// testPackageTransactions implements TestPackageTransactions: finality,
// witness suppression, DCT suppression.
func (a *Assembler) testPackageTransactions(pkg []*mempool.Entry, height int32, lockTimeCutoff int64, state *blockState) bool {
	for _, e := range pkg {
		if a.Finality != nil && !a.Finality.IsFinal(e.Tx, height, lockTimeCutoff) {
			return false
		}
		if !state.includeWitness && e.IsWitness {
			return false
		}
		if !state.includeDCTs && e.IsDCT {
			return false
		}
	}
	return true
}

func (a *Assembler) addToBlock(pkg []*mempool.Entry, state *blockState) {
	for _, e := range pkg {
		state.inBlock[e.TxID] = true
		state.txs = append(state.txs, e.Tx)
		state.txFees = append(state.txFees, e.Fee)
		state.txSigOps = append(state.txSigOps, e.SigOpsCost)
		state.weight += 4 * e.SizeBytes
		state.sigOpsCost += e.SigOpsCost
		state.fees += e.Fee
		state.txCount++
	}
}

// updatePackagesForAdded walks every descendant of the just-added package
// and refreshes its modified-entry aggregates by subtracting the
// contribution of whichever ancestors are now in-block, UpdatePackagesForAdded's
// effect.
func (a *Assembler) updatePackagesForAdded(pkg []*mempool.Entry, modified map[chainhash.Hash]*modifiedEntry, state *blockState) {
	for _, e := range pkg {
		for _, descTxID := range e.Descendants {
			if state.inBlock[descTxID] {
				continue
			}
			desc, ok := a.Mempool.Get(descTxID)
			if !ok {
				continue
			}
			m, exists := modified[descTxID]
			if !exists {
				m = &modifiedEntry{
					entry:          desc,
					ancestorSize:   desc.AncestorSize,
					ancestorFee:    desc.AncestorFee,
					ancestorSigOps: desc.AncestorSigOpsCost,
				}
				modified[descTxID] = m
			}
			m.ancestorSize -= e.SizeBytes
			m.ancestorFee -= e.Fee
			m.ancestorSigOps -= e.SigOpsCost
		}
	}
}
