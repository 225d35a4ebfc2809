package powminer

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/sudo696/ring/internal/merkle"
)

// maxScriptSigLen is the 100-byte ceiling IncrementExtraNonce asserts on
// the rebuilt coinbase scriptSig.
const maxScriptSigLen = 100

// incrementExtraNonce rewrites vtx[0]'s scriptSig to
// push(height) push(extraNonce) || coinbaseFlags, resetting extraNonce to 0
// whenever the block's prev-hash differs from the last call (a new
// template), then recomputes the merkle root. Mirrors IncrementExtraNonce
// (miner.cpp lines 528-545) exactly, including its ≤100-byte assertion
// (turned into a panic here: violating it is a programming error, not a
// runtime condition any caller can recover from).
func incrementExtraNonce(block *wire.MsgBlock, prevHeight int32, coinbaseFlags []byte, lastPrevHash *chainhash.Hash, extraNonce *uint32) {
	if *lastPrevHash != block.Header.PrevBlock {
		*extraNonce = 0
		*lastPrevHash = block.Header.PrevBlock
	}
	*extraNonce++

	height := prevHeight + 1

	builder := txscript.NewScriptBuilder().AddInt64(int64(height)).AddInt64(int64(*extraNonce))
	scriptSig, err := builder.Script()
	if err != nil {
		panic("powminer: couldn't build coinbase scriptSig: " + err.Error())
	}
	scriptSig = append(scriptSig, coinbaseFlags...)
	if len(scriptSig) > maxScriptSigLen {
		panic("powminer: coinbase scriptSig exceeds 100 bytes")
	}

	block.Transactions[0].TxIn[0].SignatureScript = scriptSig
	block.Header.MerkleRoot = merkle.Root(block.Transactions)
}
