// Package merkle computes block merkle roots over a transaction set, the
// step IncrementExtraNonce performs on every coinbase-scriptSig mutation so
// a miner's block header always commits to its current transaction list.
package merkle

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Root computes the merkle root of txs in order, with the coinbase (txs[0])
// included, duplicating the last node of any odd-width level — the same
// construction BlockMerkleRoot relies on.
func Root(txs []*wire.MsgTx) chainhash.Hash {
	if len(txs) == 0 {
		return chainhash.Hash{}
	}

	level := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		level[i] = tx.TxHash()
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}

func hashPair(a, b chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], a[:])
	copy(buf[chainhash.HashSize:], b[:])
	return chainhash.DoubleHashH(buf[:])
}
