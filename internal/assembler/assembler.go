// Package assembler builds candidate blocks from mempool transactions,
// selecting the fee-maximizing package under weight/sigops limits via
// ancestor-feerate ordering, and shapes the coinbase for whichever
// production mode (PoW, Hive, Pop) is requested. Grounded on
// BlockAssembler::CreateNewBlock/addPackageTxs/TestPackage/AddToBlock/
// UpdatePackagesForAdded (miner.cpp lines 94-526).
package assembler

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/difficulty"
	"github.com/sudo696/ring/internal/mempool"
	"github.com/sudo696/ring/internal/merkle"
	logiface "github.com/sudo696/ring/pkg/interfaces/infrastructure/log"
)

// Mode selects which kind of block is being assembled.
type Mode int

const (
	ModePoW Mode = iota
	ModeHive
	ModePop
)

// maxConsecutiveFailures bounds how many back-to-back admission failures
// the selection loop tolerates before giving up, matching
// MAX_CONSECUTIVE_FAILURES in addPackageTxs.
const maxConsecutiveFailures = 1000

// The coinbase flags (chainparams.Params.CoinbaseFlags) are appended to the
// coinbase scriptSig by the PoW miner once it starts incrementing the
// extra-nonce; the assembler only writes the height/OP_0 placeholder,
// matching CreateNewBlock's initial scriptSig. The ≤100-byte limit is
// enforced by the powminer package that owns extra-nonce mutation.

// TipView is the narrow read accessor the assembler needs from the current
// chain tip, standing in for CBlockIndex/chainActive.Tip().
type TipView interface {
	Height() int32
	Hash() chainhash.Hash
	Bits() uint32
	Time() int64
	MedianTimePast() int64
	IsHiveBlock() bool
	Prev() TipView
}

type difficultyViewAdapter struct{ TipView }

func (a difficultyViewAdapter) Prev() difficulty.BlockView {
	p := a.TipView.Prev()
	if p == nil {
		return nil
	}
	return difficultyViewAdapter{p}
}

// SubsidyCalculator supplies the block reward for each production mode —
// an external collaborator, since the reward schedule is chain-economics
// policy rather than assembly mechanics.
type SubsidyCalculator interface {
	PowSubsidy(height int32) int64
	HiveSubsidy() int64
	PopPrivateSubsidy() int64
	PopPublicSubsidy() int64
}

// BlockValidator runs the external TestBlockValidity-equivalent check
// against a fully assembled candidate block.
type BlockValidator interface {
	Validate(block *wire.MsgBlock, tip TipView) error
}

// FinalityChecker reports whether a transaction is final at the given
// height/locktime cutoff, standing in for IsFinalTx.
type FinalityChecker interface {
	IsFinal(tx *wire.MsgTx, height int32, lockTimeCutoff int64) bool
}

// Options mirrors BlockAssembler::Options.
type Options struct {
	BlockMinFeeRate float64 // satoshis per byte of ancestor package size
	BlockMaxWeight  int64
	IncludeWitness  bool
	BlockVersion    int32 // -blockversion; 0 means the default version 1
}

// Template is the output of Assemble, mirroring CBlockTemplate.
type Template struct {
	Block        *wire.MsgBlock
	TxFees       []int64
	TxSigOpsCost []int64
}

// Assembler builds block templates against one mempool.Source.
type Assembler struct {
	Params    *chainparams.Params
	Mempool   mempool.Source
	Subsidy   SubsidyCalculator
	Validator BlockValidator
	Finality  FinalityChecker
	Logger    logiface.Logger

	opts Options
}

func New(params *chainparams.Params, opts Options, src mempool.Source, subsidy SubsidyCalculator, validator BlockValidator, finality FinalityChecker, logger logiface.Logger) *Assembler {
	opts.BlockMaxWeight = params.ClampBlockMaxWeight(opts.BlockMaxWeight)
	return &Assembler{
		Params:    params,
		Mempool:   src,
		Subsidy:   subsidy,
		Validator: validator,
		Finality:  finality,
		Logger:    logger,
		opts:      opts,
	}
}

type blockState struct {
	weight        int64
	sigOpsCost    int64
	fees          int64
	txCount       int
	includeWitness bool
	includeDCTs   bool
	inBlock       map[chainhash.Hash]bool
	txs           []*wire.MsgTx
	txFees        []int64
	txSigOps      []int64
}

func newBlockState() *blockState {
	return &blockState{
		weight:      4000,
		sigOpsCost:  400,
		includeDCTs: true,
		inBlock:     make(map[chainhash.Hash]bool),
	}
}

// Assemble builds a candidate block for tip, paying scriptPubKeyIn, in the
// requested mode. hiveProofScript/popProofScript must be non-nil exactly
// when mode is ModeHive/ModePop respectively.
func (a *Assembler) Assemble(tip TipView, scriptPubKeyIn []byte, mode Mode, hiveProofScript, popProofScript []byte) (*Template, error) {
	if tip == nil {
		return nil, fmt.Errorf("assembler: nil tip")
	}

	state := newBlockState()
	state.includeWitness = a.opts.IncludeWitness
	if mode == ModeHive || mode == ModePop {
		state.includeDCTs = false
	}

	height := tip.Height() + 1
	lockTimeCutoff := tip.MedianTimePast()

	a.addPackageTxs(state, height, lockTimeCutoff)

	version := a.opts.BlockVersion
	if version == 0 {
		version = 1
	}
	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   version,
			PrevBlock: tip.Hash(),
			Timestamp: time.Unix(tip.Time(), 0),
		},
	}

	coinbase, coinbaseFee, err := a.buildCoinbase(height, scriptPubKeyIn, mode, hiveProofScript, popProofScript, state.fees)
	if err != nil {
		return nil, fmt.Errorf("assembler: %w", err)
	}

	block.Transactions = append([]*wire.MsgTx{coinbase}, state.txs...)
	block.Header.MerkleRoot = merkle.Root(block.Transactions)

	switch mode {
	case ModeHive:
		block.Header.Bits = difficulty.GetNextHiveWorkRequired(difficultyViewAdapter{tip}, a.Params)
		block.Header.Nonce = a.Params.HiveNonceMarker
	case ModePop:
		block.Header.Bits = powLimitCompact(a.Params)
		block.Header.Nonce = a.Params.PopNonceMarker
	default:
		block.Header.Bits = difficulty.GetNextWorkRequired(difficultyViewAdapter{tip}, block.Header.Timestamp.Unix(), a.Params)
		block.Header.Nonce = 0
	}

	if a.Validator != nil {
		if err := a.Validator.Validate(block, tip); err != nil {
			if mode == ModePop {
				return nil, nil
			}
			return nil, fmt.Errorf("assembler: block validity check failed: %w", err)
		}
	}

	txFees := append([]int64{coinbaseFee}, state.txFees...)
	txSigOps := append([]int64{0}, state.txSigOps...)

	return &Template{Block: block, TxFees: txFees, TxSigOpsCost: txSigOps}, nil
}

func powLimitCompact(params *chainparams.Params) uint32 {
	return blockchain.BigToCompact(params.PowLimit)
}
