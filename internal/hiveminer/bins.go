package hiveminer

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sudo696/ring/internal/dwarf"
	"github.com/sudo696/ring/internal/minotaur"
)

// targetFromBits decodes a compact-encoded difficulty target, matching
// arith_uint256::SetCompact's usage in BusyDwarves.
func targetFromBits(bits uint32) *big.Int {
	return blockchain.CompactToBig(bits)
}

// hashToBig interprets a double-Minotaur dwarf hash as an unsigned
// big-endian integer, the same byte-order convention hiveproof's validator
// uses to compare against a compact-encoded target.
func hashToBig(h chainhash.Hash) *big.Int {
	var reversed chainhash.Hash
	for i := 0; i < len(h); i++ {
		reversed[i] = h[len(h)-1-i]
	}
	return new(big.Int).SetBytes(reversed[:])
}

// checkInterval is how many dwarves a bin worker checks between atomic
// abort-flag polls, matching CheckBin's `checkCount++ % 1000` cadence.
const checkInterval = 1000

// runBins spawns one goroutine per bin, bounded by a semaphore sized to
// Options.NumCores, plus an optional early-abort watcher, then waits for
// all bin workers to finish, matching BusyDwarves' thread fan-out and
// join. It returns the first solution found (nondeterministic among ties,
// as upstream's is), and the total dwarf count checked across all bins
// that reported before stopping. Bin workers never return an error; the
// errgroup is used purely for its ctx-cancellation propagation and join
// symmetry with the PoW pool.
func (s *Supervisor) runBins(ctx context.Context, bins [][]dwarf.Range, detRandString string, dwarfTargetBits uint32, height int32) (*solution, int64, error) {
	dwarfHashTarget := targetFromBits(dwarfTargetBits)

	var (
		solutionFound atomic.Bool
		earlyAbort    atomic.Bool
		mu            sync.Mutex
		found         *solution
		checked       atomic.Int64
	)

	abortRequested := func() bool {
		return solutionFound.Load() || earlyAbort.Load()
	}

	cores := s.Options.NumCores
	if cores <= 0 {
		cores = len(bins)
	}
	sem := semaphore.NewWeighted(int64(cores))

	g, gctx := errgroup.WithContext(ctx)
	for _, bin := range bins {
		bin := bin
		workerID := uuid.New().String()
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			logger := s.Logger.With("bin-worker", workerID)
			logger.Debugf("hiveminer: checking %d ranges", len(bin))

			checkBin(bin, detRandString, dwarfHashTarget, s.Hasher, abortRequested, &checked, func(rng dwarf.Range, i uint32) {
				mu.Lock()
				defer mu.Unlock()
				if solutionFound.CompareAndSwap(false, true) {
					found = &solution{rng: rng, dwarf: i}
				}
			})
			return nil
		})
	}

	var watchDone chan struct{}
	if s.Options.UseEarlyAbort {
		watchDone = make(chan struct{})
		go func() {
			defer close(watchDone)
			abortWatch(ctx, s.Chain, height, &solutionFound, &earlyAbort)
		}()
	}

	_ = g.Wait()

	if s.Options.UseEarlyAbort {
		earlyAbort.Store(true)
		<-watchDone
	}

	return found, checked.Load(), nil
}

// checkBin iterates one worker's assigned ranges, hashing each dwarf and
// comparing it against dwarfHashTarget, matching CheckBin exactly.
func checkBin(bin []dwarf.Range, detRandString string, dwarfHashTarget *big.Int, hasher minotaur.Hasher, abortRequested func() bool, checked *atomic.Int64, onSolution func(dwarf.Range, uint32)) {
	count := 0
	defer func() { checked.Add(int64(count)) }()

	for _, rng := range bin {
		for i := rng.Offset; i < rng.Offset+rng.Count; i++ {
			if count%checkInterval == 0 {
				if abortRequested() {
					return
				}
			}
			count++

			dwarfHash := dwarf.Hash(hasher, detRandString, rng.TxID, i)
			if hashToBig(dwarfHash).Cmp(dwarfHashTarget) < 0 {
				onSolution(rng, i)
				return
			}
		}
	}
}

// abortWatch polls the chain tip every millisecond and raises earlyAbort the
// moment the tip height changes out from under the in-progress check,
// matching AbortWatchThread's busy-poll loop exactly (including its 1ms
// sleep granularity — deliberately tight, since early abort only pays for
// itself if it reacts faster than a typical bin finishes).
func abortWatch(ctx context.Context, chain ChainSource, height int32, solutionFound, earlyAbort *atomic.Bool) {
	for {
		if solutionFound.Load() || earlyAbort.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		tip := chain.Tip()
		if tip != nil && tip.Height() != height {
			earlyAbort.Store(true)
			return
		}

		time.Sleep(time.Millisecond)
	}
}
