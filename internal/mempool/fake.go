package mempool

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Fake is an in-memory Source for tests.
type Fake struct {
	entries map[chainhash.Hash]*Entry
}

func NewFake() *Fake {
	return &Fake{entries: make(map[chainhash.Hash]*Entry)}
}

func (f *Fake) Add(e *Entry) {
	f.entries[e.TxID] = e
}

func (f *Fake) Remove(txid chainhash.Hash) {
	delete(f.entries, txid)
}

func (f *Fake) Get(txid chainhash.Hash) (*Entry, bool) {
	e, ok := f.entries[txid]
	return e, ok
}

func (f *Fake) AncestorOrdered() []*Entry {
	out := make([]*Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AncestorFeeRate() > out[j].AncestorFeeRate()
	})
	return out
}
