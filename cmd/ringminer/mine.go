package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"

	"github.com/sudo696/ring/internal/powminer"
)

func newMineCmd(f *rootFlags) *cobra.Command {
	var (
		threads   int
		rewardHex string
		maxBlocks int
	)

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Run the PoW miner pool against the regtest harness",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(f)
			if err != nil {
				return err
			}

			scriptPubKeyIn, err := e.addresses.ScriptForAddress(rewardHex)
			if err != nil {
				return fmt.Errorf("ringminer: %w", err)
			}

			nThreads := threads
			if nThreads <= 0 {
				nThreads = runtime.NumCPU()
			}

			ctx := cmd.Context()
			if maxBlocks > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				defer cancel()
				mined := 0
				sub := &countingSubmitter{inner: powSubmitter{chain: e.chain}, onSubmit: func() {
					mined++
					if mined >= maxBlocks {
						cancel()
					}
				}}
				pool := powminer.NewPool(e.assembler(f), e.params, blockHeaderHasher{h: e.hasher}, powChain{chainState: e.chain, network: e.network}, sub, noopKeyKeeper{}, noopNotifier{}, e.clk, e.logger, e.metrics, scriptPubKeyIn)
				if err := pool.Run(ctx, nThreads); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			}

			pool := powminer.NewPool(e.assembler(f), e.params, blockHeaderHasher{h: e.hasher}, powChain{chainState: e.chain, network: e.network}, powSubmitter{chain: e.chain}, noopKeyKeeper{}, noopNotifier{}, e.clk, e.logger, e.metrics, scriptPubKeyIn)
			return pool.Run(cmd.Context(), nThreads)
		},
	}

	cmd.Flags().IntVar(&threads, "threads", 0, "miner goroutines (0 = number of cpus)")
	cmd.Flags().StringVar(&rewardHex, "reward", hex.EncodeToString(bytes.Repeat([]byte{0xAB}, 20)), "20-byte hex hash160 to pay block rewards to")
	cmd.Flags().IntVar(&maxBlocks, "maxblocks", 0, "stop after mining this many blocks (0 = run forever)")

	return cmd
}

// countingSubmitter wraps a powminer.Submitter to observe each accepted
// block, used to implement -maxblocks without teaching the pool itself
// about a block budget.
type countingSubmitter struct {
	inner    powminer.Submitter
	onSubmit func()
}

func (s *countingSubmitter) Submit(block *wire.MsgBlock) error {
	if err := s.inner.Submit(block); err != nil {
		return err
	}
	s.onSubmit()
	return nil
}
