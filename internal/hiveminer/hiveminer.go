// Package hiveminer runs the Hive block-production loop: a poll-driven
// supervisor that, on every chain-tip height change, enumerates mature
// dwarves, splits them across worker goroutines, and races them against a
// per-dwarf hash target until one wins or the search is aborted. Grounded
// on DwarfMaster/BusyDwarves/CheckBin/AbortWatchThread (miner.cpp lines
// 793-1063).
package hiveminer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/difficulty"
	"github.com/sudo696/ring/internal/dwarf"
	"github.com/sudo696/ring/internal/hiveproof"
	"github.com/sudo696/ring/internal/merkle"
	"github.com/sudo696/ring/internal/metrics"
	"github.com/sudo696/ring/internal/minotaur"
	infraclock "github.com/sudo696/ring/pkg/interfaces/infrastructure/clock"
	logiface "github.com/sudo696/ring/pkg/interfaces/infrastructure/log"
)

// TipView is the narrow chain-tip accessor the supervisor and its block
// assembly step need, combining assembler.TipView with the chain-scoped
// deterministic rand string GetDeterministicRandString derives per window.
type TipView interface {
	assembler.TipView
	DeterministicRandString() string
}

// difficultyView adapts TipView to difficulty.BlockView for the Hive
// retarget calculation, mirroring assembler's own difficultyViewAdapter.
type difficultyView struct{ assembler.TipView }

func (d difficultyView) Prev() difficulty.BlockView {
	p := d.TipView.Prev()
	if p == nil {
		return nil
	}
	return difficultyView{p}
}

// ChainSource is the minimal tip accessor the supervisor polls for height
// changes and re-reads to detect staleness before submitting.
type ChainSource interface {
	Tip() TipView
}

// NetworkView is the narrow peer/sync state BusyDwarves checks before
// doing any work, standing in for g_connman and IsInitialBlockDownload.
type NetworkView interface {
	PeerCount() int
	IsInitialBlockDownload() bool
}

// WalletView is the narrow wallet accessor BusyDwarves needs: DCT
// enumeration, lock state, and the signing key behind a reward address.
// Wallet key custody itself is out of this core's scope, so this is an
// external collaborator contract, not an implementation.
type WalletView interface {
	IsAvailable() bool
	IsLocked() bool
	DCTs(height int32, params *chainparams.Params) ([]dwarf.DCT, error)
	KeyForAddress(address string) (*btcec.PrivateKey, error)
}

// UTXOView resolves the confirmed height of a DCT's vout[0], standing in
// for pcoinsTip->GetCoin.
type UTXOView interface {
	ConfirmedHeight(txid chainhash.Hash) (int32, error)
}

// AddressEncoder turns a reward address string into a scriptPubKey,
// standing in for DecodeDestination/GetScriptForDestination — address
// encoding is a wallet-layer concern this core's non-goals place
// elsewhere.
type AddressEncoder interface {
	ScriptForAddress(address string) ([]byte, error)
}

// Submitter hands off a fully assembled Hive block template, standing in
// for ProcessNewBlock.
type Submitter interface {
	Submit(tmpl *assembler.Template) error
}

// solution is what a winning worker reports back to busyDwarves.
type solution struct {
	rng   dwarf.Range
	dwarf uint32
}

// Options controls the -hivecheckdelay/-hivecheckthreads/-hiveearlyout CLI
// knobs from §4.3 step 2.
type Options struct {
	CheckDelay    time.Duration
	ThreadCount   int // raw -hivecheckthreads value; see dwarf.ResolveThreadCount
	UseEarlyAbort bool
	NumCores      int
}

// Supervisor runs the DwarfMaster poll loop.
type Supervisor struct {
	Params    *chainparams.Params
	Chain     ChainSource
	Network   NetworkView
	Wallet    WalletView
	UTXOs     UTXOView
	Addresses AddressEncoder
	Hasher    minotaur.Hasher
	Assembler *assembler.Assembler
	Submitter Submitter
	Clock     infraclock.Clock
	Logger    logiface.Logger
	Metrics   *metrics.Registry
	Options   Options
}

// Run polls Chain.Tip().Height() every Options.CheckDelay and fires a Hive
// check whenever it changes, matching DwarfMaster's loop exactly (minus the
// OS-thread rename, which has no Go analogue).
func (s *Supervisor) Run(ctx context.Context) error {
	tip := s.Chain.Tip()
	if tip == nil {
		return fmt.Errorf("hiveminer: nil chain tip at startup")
	}
	height := tip.Height()

	delay := s.Options.CheckDelay
	if delay <= 0 {
		delay = time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		newTip := s.Chain.Tip()
		if newTip == nil {
			continue
		}
		newHeight := newTip.Height()
		if newHeight == height {
			continue
		}
		height = newHeight

		if err := s.busyDwarves(ctx, newTip, height); err != nil {
			s.Logger.Warnf("hiveminer: dwarf check failed: %v", err)
		}
	}
}

// busyDwarves is one BusyDwarves cycle: pre-checks, binning, the parallel
// search, and (on a solution) proof assembly and submission.
func (s *Supervisor) busyDwarves(ctx context.Context, tip TipView, height int32) error {
	if ok, reason := s.preChecks(tip, height); !ok {
		s.Logger.Debugf("hiveminer: skipping hive check (%s)", reason)
		return nil
	}

	detRandString := tip.DeterministicRandString()
	dwarfTargetBits := difficulty.GetNextHiveWorkRequired(difficultyView{tip}, s.Params)

	dcts, err := s.matureDCTs(height)
	if err != nil {
		return fmt.Errorf("enumerating dcts: %w", err)
	}
	if len(dcts) == 0 {
		s.Logger.Debug("hiveminer: no mature dwarves found")
		return nil
	}

	threadCount := dwarf.ResolveThreadCount(s.Options.ThreadCount, s.Options.NumCores)
	bins := dwarf.BinDwarves(dcts, threadCount)
	if len(bins) == 0 {
		return nil
	}

	checkStart := s.Clock.Now()
	sol, checked, err := s.runBins(ctx, bins, detRandString, dwarfTargetBits, height)
	checkDuration := s.Clock.Since(checkStart)
	if s.Metrics != nil {
		s.Metrics.HiveDwarvesCheckedTotal.Add(float64(checked))
		s.Metrics.HiveCheckDurationSeconds.Observe(checkDuration.Seconds())
	}
	if err != nil {
		return err
	}
	if sol == nil {
		s.Logger.Infof("hiveminer: no dwarf meets hash target (%d dwarves checked in %s)", checked, checkDuration)
		return nil
	}

	s.Logger.Infof("hiveminer: dwarf meets hash target after %s, dwarf #%d from dct %s", checkDuration, sol.dwarf, sol.rng.TxID)

	return s.mintBlock(tip, detRandString, *sol)
}

// preChecks reproduces BusyDwarves' sanity gates before it does anything
// expensive: network presence, IBD, slow-start window, and the
// max-consecutive-Hive-blocks cap.
func (s *Supervisor) preChecks(tip TipView, height int32) (bool, string) {
	if s.Network == nil {
		return false, "peer-to-peer functionality missing or disabled"
	}
	if s.Network.PeerCount() == 0 {
		return false, "not connected"
	}
	if s.Network.IsInitialBlockDownload() {
		return false, "in initial block download"
	}
	if height < s.Params.LastInitialDistributionHeight+s.Params.SlowStartBlocks {
		return false, "slow start has not finished"
	}

	hiveBlocksSincePow := 0
	cur := assembler.TipView(tip)
	for cur != nil && cur.IsHiveBlock() {
		hiveBlocksSincePow++
		cur = cur.Prev()
	}
	if hiveBlocksSincePow >= s.Params.MaxConsecutiveHiveBlocks {
		return false, "max hive blocks without a pow block reached"
	}

	if s.Wallet == nil || !s.Wallet.IsAvailable() {
		return false, "wallet unavailable"
	}
	if s.Wallet.IsLocked() {
		return false, "wallet is locked"
	}

	return true, ""
}

// matureDCTs enumerates the wallet's DCTs and filters to mature status,
// matching BusyDwarves' potentialDcts -> dcts filter loop.
func (s *Supervisor) matureDCTs(height int32) ([]dwarf.DCT, error) {
	all, err := s.Wallet.DCTs(height, s.Params)
	if err != nil {
		return nil, err
	}
	var mature []dwarf.DCT
	for _, d := range all {
		if d.Status == dwarf.StatusMature {
			mature = append(mature, d)
		}
	}
	return mature, nil
}

// mintBlock signs the winning dwarf's proof, assembles a Hive block around
// it, verifies the tip hasn't moved, and submits it. Matches BusyDwarves'
// proof-assembly and submission tail exactly.
func (s *Supervisor) mintBlock(tip TipView, detRandString string, sol solution) error {
	key, err := s.Wallet.KeyForAddress(sol.rng.RewardAddress)
	if err != nil {
		return fmt.Errorf("hiveminer: privkey unavailable for reward address: %w", err)
	}

	mhash := sha256.Sum256([]byte(detRandString))
	sig := ecdsa.SignCompact(key, mhash[:], true)
	var sigArr [65]byte
	copy(sigArr[:], sig)

	confirmedHeight, err := s.UTXOs.ConfirmedHeight(sol.rng.TxID)
	if err != nil {
		return fmt.Errorf("hiveminer: couldn't locate dct utxo: %w", err)
	}

	proof := hiveproof.Proof{
		DwarfNonce:       sol.dwarf,
		DCTClaimedHeight: uint32(confirmedHeight),
		CommunityContrib: sol.rng.CommunityContrib,
		TxID:             sol.rng.TxID.String(),
		MessageSig:       sigArr,
	}
	proofScript, err := hiveproof.Encode(proof)
	if err != nil {
		return fmt.Errorf("hiveminer: couldn't encode hive proof: %w", err)
	}

	rewardScript, err := s.Addresses.ScriptForAddress(sol.rng.RewardAddress)
	if err != nil {
		return fmt.Errorf("hiveminer: couldn't build reward script: %w", err)
	}

	tmpl, err := s.Assembler.Assemble(tip, rewardScript, assembler.ModeHive, proofScript, nil)
	if err != nil {
		return fmt.Errorf("hiveminer: couldn't create block: %w", err)
	}
	if tmpl == nil {
		return fmt.Errorf("hiveminer: couldn't create block")
	}
	tmpl.Block.Header.MerkleRoot = merkle.Root(tmpl.Block.Transactions)

	currentTip := s.Chain.Tip()
	if currentTip == nil || currentTip.Hash() != tmpl.Block.Header.PrevBlock {
		s.Logger.Warn("hiveminer: generated block is stale")
		return nil
	}

	if err := s.Submitter.Submit(tmpl); err != nil {
		s.Logger.Warnf("hiveminer: block wasn't accepted: %v", err)
		return nil
	}

	s.Logger.Info("hiveminer: block mined")
	return nil
}
