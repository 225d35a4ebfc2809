package main

import (
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/sudo696/ring/internal/hiveminer"
)

func newHiveCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hive",
		Short: "Run the Hive supervisor against the regtest harness",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(f)
			if err != nil {
				return err
			}

			sup := &hiveminer.Supervisor{
				Params:    e.params,
				Chain:     hiveChain{chainState: e.chain},
				Network:   e.network,
				Wallet:    e.wallet,
				UTXOs:     e.utxo,
				Addresses: e.addresses,
				Hasher:    e.hasher,
				Assembler: e.assembler(f),
				Submitter: hiveSubmitter{chain: e.chain},
				Clock:     e.clk,
				Logger:    e.logger,
				Metrics:   e.metrics,
				Options: hiveminer.Options{
					CheckDelay:    time.Duration(f.hiveCheckDelay) * time.Millisecond,
					ThreadCount:   f.hiveCheckThreads,
					UseEarlyAbort: f.hiveEarlyOut,
					NumCores:      runtime.NumCPU(),
				},
			}

			return sup.Run(cmd.Context())
		},
	}

	return cmd
}
