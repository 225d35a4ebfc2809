package powminer

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// nonceCheckpointMask sets how often ScanHash returns control to the caller
// regardless of outcome: whenever nonce&0xffff == 0 (every 65536 nonces).
const nonceCheckpointMask = 0xffff

// nonceInterruptMask is how often ScanHash polls the cancellation callback,
// matching the 0xfff mask (every 4096 nonces).
const nonceInterruptMask = 0xfff

// scanHash increments header.Nonce, computing the PoW hash at each step,
// until either a hash with both high-order bytes zero is found (a cheap
// pre-filter the caller then checks against the real target), the nonce
// reaches a checkpoint (nonce&0xffff == 0), or cancel reports true at an
// interrupt point (nonce&0xfff == 0). Ports ScanHash (miner.cpp lines 552-571)
// exactly, including its two-mask cadence.
func scanHash(header *wire.BlockHeader, hasher PowHasher, cancel func() bool) (hash chainhash.Hash, nonce uint32, found bool) {
	for {
		header.Nonce++
		nonce = header.Nonce
		hash = hasher.PowHash(header)

		if hash[31] == 0 && hash[30] == 0 {
			return hash, nonce, true
		}

		if nonce&nonceCheckpointMask == 0 {
			return hash, nonce, false
		}

		if nonce&nonceInterruptMask == 0 {
			if cancel != nil && cancel() {
				return hash, nonce, false
			}
		}
	}
}
