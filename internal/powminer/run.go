package powminer

import (
	"context"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/sudo696/ring/internal/assembler"
)

// hashrateWindow is how often the process-wide hashrate counter refreshes,
// matching the 4s threshold guarding dHashesPerSec's recompute.
const hashrateWindow = 4 * time.Second

// hashrateLogThrottle bounds how often a hashrate figure is logged, even
// though it's recomputed every hashrateWindow.
const hashrateLogThrottle = 30 * time.Minute

// scanAndSubmit runs scanHash in a loop against block until it finds a
// hash meeting the real target, submits it, or hits one of the five
// restart conditions from §4.2 step 7. Ports the inner while(true) loop of
// MinerThread (miner.cpp lines 660-762).
func (w *minerWorker) scanAndSubmit(ctx context.Context, block *wire.MsgBlock, tip assembler.TipView, transactionsUpdatedLast int64) error {
	header := &block.Header
	hashTarget := blockchain.CompactToBig(header.Bits)

	start := w.pool.Clock.Now()
	var hashesSinceWindow int64
	windowStart := w.pool.Clock.Now()
	var lastLog time.Time
	lastNonce := header.Nonce

	cancelled := func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	for {
		hash, nonce, found := scanHash(header, w.pool.Hasher, cancelled)
		delta := int64(nonce - lastNonce)
		hashesSinceWindow += delta
		lastNonce = nonce

		if found {
			if hashToBig(hash).Cmp(hashTarget) <= 0 {
				header.Nonce = nonce

				currentTip := w.pool.Chain.Tip()
				if currentTip == nil || currentTip.Hash() != header.PrevBlock {
					w.pool.Logger.Warn("powminer: generated block is stale")
					return nil
				}

				if err := w.pool.Submitter.Submit(block); err != nil {
					w.pool.Logger.Warnf("powminer: block was not accepted: %v", err)
					return nil
				}

				w.pool.Keys.KeepScript(w.pool.scriptPubKeyIn)
				w.pool.Notifier.NotifyBlockFound()

				if w.pool.Chain.Regtest() {
					return nil
				}
				return nil
			}
		}

		if w.pool.Metrics != nil {
			w.pool.Metrics.PowHashesTotal.Add(float64(delta))
		}

		now := w.pool.Clock.Now()
		if now.Sub(windowStart) > hashrateWindow {
			elapsed := now.Sub(windowStart).Seconds()
			if elapsed > 0 {
				rate := float64(hashesSinceWindow) / elapsed
				if w.pool.Metrics != nil {
					w.pool.Metrics.PowHashrate.Set(rate)
				}
				if now.Sub(lastLog) > hashrateLogThrottle {
					lastLog = now
					w.pool.Logger.Infof("powminer: hashrate %.1f khash/s", rate/1000.0)
				}
			}
			windowStart = now
			hashesSinceWindow = 0
		}

		if cancelled() {
			return ctx.Err()
		}
		if !w.pool.Chain.Regtest() && w.pool.Chain.PeerCount() == 0 {
			return nil
		}
		if nonce >= maxNonce {
			return nil
		}
		if w.pool.Chain.TransactionsUpdated() != transactionsUpdatedLast && w.pool.Clock.Since(start) > mempoolStaleAfter {
			return nil
		}
		currentTip := w.pool.Chain.Tip()
		if currentTip == nil || currentTip.Hash() != tip.Hash() {
			return nil
		}
		if delta := updateTime(header, tip.MedianTimePast(), w.pool.Clock.Now()); delta < 0 {
			return nil
		}
		if w.pool.Params.PowAllowMinDifficultyBlocks {
			hashTarget = blockchain.CompactToBig(header.Bits)
		}
	}
}

func hashToBig(h chainhash.Hash) *big.Int {
	var reversed chainhash.Hash
	for i := 0; i < len(h); i++ {
		reversed[i] = h[len(h)-1-i]
	}
	return new(big.Int).SetBytes(reversed[:])
}
