// Package mempool defines the narrow query surface the Block Assembler
// needs from the mempool, grounded on CTxMemPoolEntry/CTxMemPool::txiter
// usage throughout addPackageTxs. The mempool itself — storage, eviction,
// relay — is out of scope: this package only states the contract a real
// mempool implementation must satisfy to be assembled against.
package mempool

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Entry is one candidate transaction and the aggregate figures the
// ancestor-feerate package-selection loop needs about it and its unconfirmed
// ancestor set, mirroring the fields addPackageTxs reads off
// CTxMemPoolEntry/CTxMemPool ancestor iterators.
type Entry struct {
	TxID chainhash.Hash
	Tx   *wire.MsgTx

	// Per-transaction cost.
	SizeBytes   int64
	WeightUnits int64
	SigOpsCost  int64
	Fee         int64 // satoshis, actual fee paid

	// ModifiedFee lets a caller bias selection (e.g. prioritisetransaction)
	// without mutating the underlying fee actually paid.
	ModifiedFee int64

	// Ancestor aggregates, i.e. this entry's package including all of its
	// still-unconfirmed ancestors.
	AncestorCount    int64
	AncestorSize     int64
	AncestorFee      int64
	AncestorSigOpsCost int64

	Descendants    []chainhash.Hash // direct+transitive, for UpdatePackagesForAdded
	AncestorTxIDs  []chainhash.Hash // still-unconfirmed ancestors, for package resolution

	IsWitness bool // carries a witness commitment; excluded pre-segwit-activation
	IsDCT     bool // a Dwarf-Creation Transaction; assembler may suppress these
}

// Ancestors returns the entry's still-unconfirmed ancestor txids.
func (e *Entry) Ancestors() []chainhash.Hash { return e.AncestorTxIDs }

// AncestorFeeRate is fee per byte (AncestorFee/AncestorSize) over the entry's whole unconfirmed
// package, the sort key addPackageTxs' mapModifiedTx multi-index orders by.
func (e *Entry) AncestorFeeRate() float64 {
	if e.AncestorSize == 0 {
		return 0
	}
	return float64(e.AncestorFee) / float64(e.AncestorSize)
}

// Source is the read-only view of the mempool the assembler iterates over.
// A real implementation backs this with whatever mempool data structure the
// node uses; tests back it with an in-memory fake.
type Source interface {
	// AncestorOrdered returns candidate entries sorted best-ancestor-feerate
	// first, the iteration order addPackageTxs relies on via
	// CTxMemPool::mapTx's ancestor_score index.
	AncestorOrdered() []*Entry

	// Get looks up a single entry by txid, used to fetch a candidate's
	// ancestors when resolving its package and the descendants of entries
	// just added to the block (UpdatePackagesForAdded's re-fetch).
	Get(txid chainhash.Hash) (*Entry, bool)
}
