// Command ringminer runs the block-production core — PoW pool, Hive
// supervisor, or standalone Hive proof validation — against a
// self-contained in-memory regtest harness. Networking, wallet key
// custody, the UTXO/coin database, and block storage are this core's
// explicit non-goals; a production deployment wires the same Pool/
// Supervisor/Validate entry points against its own implementations of the
// narrow collaborator interfaces this harness stands in for here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/dwarf/store"
	"github.com/sudo696/ring/internal/mempool"
	"github.com/sudo696/ring/internal/metrics"
	"github.com/sudo696/ring/internal/minotaur"
	realclock "github.com/sudo696/ring/pkg/clock"
	infraclock "github.com/sudo696/ring/pkg/interfaces/infrastructure/clock"
	logiface "github.com/sudo696/ring/pkg/interfaces/infrastructure/log"
	"github.com/sudo696/ring/pkg/logging"
)

// rootFlags holds the -blockmaxweight/-blockmintxfee/-blockversion/
// -printpriority/-hivecheckdelay/-hivecheckthreads/-hiveearlyout surface.
type rootFlags struct {
	blockMaxWeight  int64
	blockMinTxFee   float64
	blockVersion    int32
	printPriority   bool
	hiveCheckDelay  int64 // milliseconds
	hiveCheckThreads int
	hiveEarlyOut    bool
	dataDir         string
	peers           int
	ibd             bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "ringminer",
		Short: "Block production and consensus-rule verification core",
		Long: "ringminer assembles and searches for PoW/Hive blocks, or validates a " +
			"standalone Hive proof, against an in-memory regtest harness.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.Int64Var(&flags.blockMaxWeight, "blockmaxweight", 4_000_000, "maximum block weight for assembled templates")
	pf.Float64Var(&flags.blockMinTxFee, "blockmintxfee", 0, "minimum satoshis per byte to include a transaction")
	pf.Int32Var(&flags.blockVersion, "blockversion", 0, "block header version to assemble (0 = default)")
	pf.BoolVar(&flags.printPriority, "printpriority", false, "raise the log level to debug (package selection itself logs nothing)")
	pf.Int64Var(&flags.hiveCheckDelay, "hivecheckdelay", 1000, "milliseconds between hive tip-height polls")
	pf.IntVar(&flags.hiveCheckThreads, "hivecheckthreads", 0, "hive worker threads (-2 = cores-1, 0 = 1)")
	pf.BoolVar(&flags.hiveEarlyOut, "hiveearlyout", true, "abort an in-progress hive check when the tip changes")
	pf.StringVar(&flags.dataDir, "datadir", "", "badger directory for the dct index (empty = in-memory)")
	pf.IntVar(&flags.peers, "peers", 1, "simulated peer count for network-presence checks")
	pf.BoolVar(&flags.ibd, "ibd", false, "simulate initial block download")

	root.AddCommand(newMineCmd(flags))
	root.AddCommand(newHiveCmd(flags))
	root.AddCommand(newValidateCmd(flags))
	root.AddCommand(newDCTCmd(flags))

	return root
}

// env bundles the shared harness wiring every subcommand builds against.
type env struct {
	params    *chainparams.Params
	logger    *logging.Logger
	chain     *chainState
	network   *networkStub
	dcts      store.Interface
	wallet    *harnessWallet
	utxo      *harnessUTXO
	addresses harnessAddresses
	metrics   *metrics.Registry
	clk       infraclock.Clock
	hasher    minotaur.Hasher
}

func newEnv(f *rootFlags) (*env, error) {
	logCfg := logging.DefaultConfig()
	if f.printPriority {
		// -printpriority asks for the package-selection diagnostics
		// addPackageTxs logs at debug level upstream.
		logCfg.Level = logiface.DebugLevel
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("ringminer: building logger: %w", err)
	}

	params := chainparams.RegressionTestParams()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("ringminer: invalid chain params: %w", err)
	}

	var dcts store.Interface
	if f.dataDir != "" {
		s, err := store.Open(f.dataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("ringminer: opening dct store: %w", err)
		}
		dcts = s
	} else {
		dcts = store.NewFake()
	}

	wallet, err := newHarnessWallet(dcts)
	if err != nil {
		return nil, fmt.Errorf("ringminer: building wallet: %w", err)
	}

	chain := newChainState(params, dcts)

	return &env{
		params:    params,
		logger:    logger,
		chain:     chain,
		network:   &networkStub{peers: f.peers, ibd: f.ibd},
		dcts:      dcts,
		wallet:    wallet,
		utxo:      &harnessUTXO{dcts: dcts, params: params},
		addresses: harnessAddresses{},
		metrics:   metrics.New(),
		clk:       realclock.SystemClock{},
		hasher:    minotaur.DoubleSHA256Hasher{},
	}, nil
}

func (e *env) assembler(f *rootFlags) *assembler.Assembler {
	opts := assembler.Options{
		BlockMinFeeRate: f.blockMinTxFee,
		BlockMaxWeight:  f.blockMaxWeight,
		IncludeWitness:  true,
		BlockVersion:    f.blockVersion,
	}
	return assembler.New(e.params, opts, mempool.NewFake(), fixedSubsidy{}, noopValidator{}, alwaysFinal{}, e.logger)
}

