// Package powminer runs the PoW nonce-search loop: a pool of goroutines,
// each independently assembling a fresh template, incrementing its
// extra-nonce, and scanning nonces until it finds a hash meeting the
// current target or hits a restart condition. Grounded on MinerThread/
// MineCoins/ScanHash/IncrementExtraNonce (miner.cpp lines 528-790).
package powminer

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/metrics"
	infraclock "github.com/sudo696/ring/pkg/interfaces/infrastructure/clock"
	logiface "github.com/sudo696/ring/pkg/interfaces/infrastructure/log"
)

// maxNonce is the point at which the 32-bit nonce space is considered
// exhausted and the template must be rebuilt, matching the 0xffff0000
// cutoff in MinerThread.
const maxNonce = 0xffff0000

// mempoolStaleAfter is how long the loop tolerates a stale mempool
// snapshot before forcing a rebuild, matching the 60s check.
const mempoolStaleAfter = 60 * time.Second

// PowHasher computes a block header's proof-of-work hash, standing in for
// CBlockHeader::GetPowHash (an external collaborator per the governing
// spec's non-goal on the base hash primitive).
type PowHasher interface {
	PowHash(header *wire.BlockHeader) chainhash.Hash
}

// ChainSource is the narrow view of node state MinerThread polled directly:
// peer count, IBD status, the mempool's change counter, and the live tip.
type ChainSource interface {
	Tip() assembler.TipView
	TransactionsUpdated() int64
	PeerCount() int
	IsInitialBlockDownload() bool
	Regtest() bool
}

// Submitter hands a found block to the rest of the node for acceptance,
// standing in for ProcessNewBlock.
type Submitter interface {
	Submit(block *wire.MsgBlock) error
}

// KeyKeeper persists the coinbase key used for a successfully mined block,
// standing in for CReserveScript::KeepScript.
type KeyKeeper interface {
	KeepScript(scriptPubKeyIn []byte)
}

// Notifier fires the found-a-block UI notification.
type Notifier interface {
	NotifyBlockFound()
}

// Pool runs nThreads independent miner goroutines against one Assembler.
type Pool struct {
	Assembler   *assembler.Assembler
	Params      *chainparams.Params
	Hasher      PowHasher
	Chain       ChainSource
	Submitter   Submitter
	Keys        KeyKeeper
	Notifier    Notifier
	Clock       infraclock.Clock
	Logger      logiface.Logger
	Metrics     *metrics.Registry

	scriptPubKeyIn []byte
}

func NewPool(a *assembler.Assembler, params *chainparams.Params, hasher PowHasher, chain ChainSource, submitter Submitter, keys KeyKeeper, notifier Notifier, clock infraclock.Clock, logger logiface.Logger, m *metrics.Registry, scriptPubKeyIn []byte) *Pool {
	return &Pool{
		Assembler:      a,
		Params:         params,
		Hasher:         hasher,
		Chain:          chain,
		Submitter:      submitter,
		Keys:           keys,
		Notifier:       notifier,
		Clock:          clock,
		Logger:         logger,
		Metrics:        m,
		scriptPubKeyIn: scriptPubKeyIn,
	}
}

// Run starts nThreads worker goroutines and blocks until ctx is cancelled or
// a worker returns a hard error (e.g. keypool exhaustion, §7), matching
// MineCoins' thread-group lifecycle, minus the regtest single-shot
// "throw after one block" behavior which callers implement by cancelling
// ctx from their Notifier/Submitter hook.
func (p *Pool) Run(ctx context.Context, nThreads int) error {
	if nThreads <= 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < nThreads; i++ {
		worker := &minerWorker{pool: p, extraNonce: 0, id: uuid.New().String()}
		g.Go(func() error {
			return worker.run(ctx)
		})
	}
	return g.Wait()
}

type minerWorker struct {
	pool           *Pool
	extraNonce     uint32
	lastPrevHash   chainhash.Hash
	id             string // uuid tagging this worker's log lines for correlation across the pool
	logger         logiface.Logger
}

func (w *minerWorker) run(ctx context.Context) error {
	w.logger = w.pool.Logger.With("worker", w.id)
	for {
		if err := w.waitForNetwork(ctx); err != nil {
			return err
		}

		transactionsUpdatedLast := w.pool.Chain.TransactionsUpdated()
		tip := w.pool.Chain.Tip()
		if tip == nil {
			return fmt.Errorf("powminer: nil chain tip")
		}

		rngBlockPlaceholder(tip.Height(), w.pool.Params)

		tmpl, err := w.pool.Assembler.Assemble(tip, w.pool.scriptPubKeyIn, assembler.ModePoW, nil, nil)
		if err != nil {
			return fmt.Errorf("powminer: couldn't assemble block template: %w", err)
		}

		w.incrementExtraNonce(tmpl.Block, tip.Height())

		if err := w.scanAndSubmit(ctx, tmpl.Block, tip, transactionsUpdatedLast); err != nil {
			return err
		}
	}
}

func (w *minerWorker) waitForNetwork(ctx context.Context) error {
	if w.pool.Chain.Regtest() {
		return nil
	}
	for {
		if w.pool.Chain.PeerCount() > 0 && !w.pool.Chain.IsInitialBlockDownload() {
			return nil
		}
		if w.pool.Chain.IsInitialBlockDownload() {
			w.logger.Info("powminer: initial block download in progress, sleeping")
		} else {
			w.logger.Info("powminer: no peers, sleeping")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
}

// incrementExtraNonce rewrites the coinbase scriptSig to height||extraNonce||
// COINBASE_FLAGS and recomputes the merkle root, IncrementExtraNonce's exact
// contract. It is the only mutation permitted to the coinbase during search.
func (w *minerWorker) incrementExtraNonce(block *wire.MsgBlock, prevHeight int32) {
	incrementExtraNonce(block, prevHeight, w.pool.Params.CoinbaseFlags, &w.lastPrevHash, &w.extraNonce)
}
