package hiveminer

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/difficulty"
	"github.com/sudo696/ring/internal/dwarf"
	"github.com/sudo696/ring/internal/mempool"
	"github.com/sudo696/ring/internal/metrics"
	"github.com/sudo696/ring/internal/minotaur"
	"github.com/sudo696/ring/pkg/clock"
	"github.com/sudo696/ring/pkg/logging"
)

type fakeTip struct {
	height  int32
	hash    chainhash.Hash
	bits    uint32
	t       int64
	isHive  bool
	randStr string
	prev    *fakeTip
}

func (f *fakeTip) Height() int32            { return f.height }
func (f *fakeTip) Hash() chainhash.Hash     { return f.hash }
func (f *fakeTip) Bits() uint32             { return f.bits }
func (f *fakeTip) Time() int64              { return f.t }
func (f *fakeTip) MedianTimePast() int64    { return f.t }
func (f *fakeTip) IsHiveBlock() bool        { return f.isHive }
func (f *fakeTip) DeterministicRandString() string { return f.randStr }
func (f *fakeTip) Prev() assembler.TipView {
	if f.prev == nil {
		return nil
	}
	return f.prev
}

type fakeChain struct {
	tip *fakeTip
}

func (c *fakeChain) Tip() TipView { return c.tip }

type fakeNetwork struct {
	peers int
	ibd   bool
}

func (n *fakeNetwork) PeerCount() int               { return n.peers }
func (n *fakeNetwork) IsInitialBlockDownload() bool { return n.ibd }

type fakeWallet struct {
	available bool
	locked    bool
	dcts      []dwarf.DCT
	keys      map[string]*btcec.PrivateKey
}

func (w *fakeWallet) IsAvailable() bool { return w.available }
func (w *fakeWallet) IsLocked() bool    { return w.locked }
func (w *fakeWallet) DCTs(height int32, params *chainparams.Params) ([]dwarf.DCT, error) {
	var out []dwarf.DCT
	for _, d := range w.dcts {
		d.Status = dwarf.StatusAt(d.ConfirmedHeight, height, params.DwarfGestationBlocks, params.DwarfLifespanBlocks)
		out = append(out, d)
	}
	return out, nil
}
func (w *fakeWallet) KeyForAddress(address string) (*btcec.PrivateKey, error) {
	return w.keys[address], nil
}

type fakeUTXO struct {
	heights map[chainhash.Hash]int32
}

func (u *fakeUTXO) ConfirmedHeight(txid chainhash.Hash) (int32, error) {
	return u.heights[txid], nil
}

type fakeAddresses struct{}

func (fakeAddresses) ScriptForAddress(address string) ([]byte, error) {
	return []byte(address), nil
}

type fakeSubsidy struct{}

func (fakeSubsidy) PowSubsidy(int32) int64   { return 5_000_000_000 }
func (fakeSubsidy) HiveSubsidy() int64       { return 1_000_000_000 }
func (fakeSubsidy) PopPrivateSubsidy() int64 { return 500_000_000 }
func (fakeSubsidy) PopPublicSubsidy() int64  { return 500_000_000 }

type alwaysFinal struct{}

func (alwaysFinal) IsFinal(*wire.MsgTx, int32, int64) bool { return true }

type fakeSubmitter struct {
	submitted *assembler.Template
}

func (s *fakeSubmitter) Submit(tmpl *assembler.Template) error {
	s.submitted = tmpl
	return nil
}

func newTestSupervisor(t *testing.T, chain *fakeChain, wallet *fakeWallet, utxo *fakeUTXO, sub *fakeSubmitter, opts Options) *Supervisor {
	logger, err := logging.New(logging.DefaultConfig())
	require.NoError(t, err)
	params := chainparams.RegressionTestParams()
	asm := assembler.New(params, assembler.Options{BlockMinFeeRate: 0, BlockMaxWeight: params.MaxBlockWeight, IncludeWitness: true}, mempool.NewFake(), fakeSubsidy{}, nil, alwaysFinal{}, logger)

	return &Supervisor{
		Params:    params,
		Chain:     chain,
		Network:   &fakeNetwork{peers: 1},
		Wallet:    wallet,
		UTXOs:     utxo,
		Addresses: fakeAddresses{},
		Hasher:    minotaur.DoubleSHA256Hasher{},
		Assembler: asm,
		Submitter: sub,
		Clock:     clock.NewMockClock(time.Unix(1_700_000_000, 0)),
		Logger:    logger,
		Metrics:   metrics.New(),
		Options:   opts,
	}
}

// findWinningNonce brute-forces a dwarf index that beats the regtest Hive
// target under DoubleSHA256Hasher, since regtest's PowLimitHive is wide
// enough that a low index almost always qualifies.
func findWinningNonce(t *testing.T, detRandString string, txid chainhash.Hash, target uint32) uint32 {
	hasher := minotaur.DoubleSHA256Hasher{}
	bigTarget := targetFromBits(target)
	for i := uint32(0); i < 64; i++ {
		h := dwarf.Hash(hasher, detRandString, txid, i)
		if hashToBig(h).Cmp(bigTarget) < 0 {
			return i
		}
	}
	t.Fatal("no winning nonce found in range; widen search or loosen target")
	return 0
}

func TestPreChecksSkipsWhenNoPeers(t *testing.T) {
	tip := &fakeTip{height: 100, randStr: "scope"}
	chain := &fakeChain{tip: tip}
	wallet := &fakeWallet{available: true}
	s := newTestSupervisor(t, chain, wallet, &fakeUTXO{}, &fakeSubmitter{}, Options{NumCores: 4})
	s.Network = &fakeNetwork{peers: 0}

	ok, reason := s.preChecks(tip, 100)
	require.False(t, ok)
	require.Equal(t, "not connected", reason)
}

func TestPreChecksSkipsWhenWalletLocked(t *testing.T) {
	tip := &fakeTip{height: 100, randStr: "scope"}
	chain := &fakeChain{tip: tip}
	wallet := &fakeWallet{available: true, locked: true}
	s := newTestSupervisor(t, chain, wallet, &fakeUTXO{}, &fakeSubmitter{}, Options{NumCores: 4})

	ok, reason := s.preChecks(tip, 100)
	require.False(t, ok)
	require.Equal(t, "wallet is locked", reason)
}

func TestPreChecksSkipsWhenTooManyConsecutiveHiveBlocks(t *testing.T) {
	older := &fakeTip{height: 98, isHive: true}
	mid := &fakeTip{height: 99, isHive: true, prev: older}
	tip := &fakeTip{height: 100, isHive: true, prev: mid, randStr: "scope"}
	chain := &fakeChain{tip: tip}
	wallet := &fakeWallet{available: true}
	s := newTestSupervisor(t, chain, wallet, &fakeUTXO{}, &fakeSubmitter{}, Options{NumCores: 4})
	s.Params.MaxConsecutiveHiveBlocks = 2

	ok, reason := s.preChecks(tip, 100)
	require.False(t, ok)
	require.Equal(t, "max hive blocks without a pow block reached", reason)
}

func TestBusyDwarvesMintsBlockOnSolution(t *testing.T) {
	tip := &fakeTip{height: 100, bits: 0x207fffff, t: 1_700_000_000, randStr: "scope-string"}
	chain := &fakeChain{tip: tip}

	txidHash := chainhash.DoubleHashH([]byte("dct-tx"))
	txid := &txidHash

	params := chainparams.RegressionTestParams()
	dwarfTargetBits := difficulty.GetNextHiveWorkRequired(difficultyView{tip}, params)
	nonce := findWinningNonce(t, tip.randStr, *txid, dwarfTargetBits)

	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	rewardAddr := "reward-address"

	dct := dwarf.DCT{
		TxID:            *txid,
		RewardAddress:   rewardAddr,
		DwarfCount:      nonce + 1,
		ConfirmedHeight: 95,
	}
	wallet := &fakeWallet{
		available: true,
		dcts:      []dwarf.DCT{dct},
		keys:      map[string]*btcec.PrivateKey{rewardAddr: privKey},
	}
	utxo := &fakeUTXO{heights: map[chainhash.Hash]int32{*txid: 95}}
	sub := &fakeSubmitter{}

	s := newTestSupervisor(t, chain, wallet, utxo, sub, Options{NumCores: 1, ThreadCount: 1})

	err = s.busyDwarves(context.Background(), tip, 100)
	require.NoError(t, err)
	require.NotNil(t, sub.submitted)
	require.Equal(t, 0, int(sub.submitted.Block.Transactions[0].TxOut[0].Value))
}

func TestBusyDwarvesNoMatureDwarves(t *testing.T) {
	tip := &fakeTip{height: 100, bits: 0x207fffff, t: 1_700_000_000, randStr: "scope-string"}
	chain := &fakeChain{tip: tip}
	wallet := &fakeWallet{available: true}
	sub := &fakeSubmitter{}

	s := newTestSupervisor(t, chain, wallet, &fakeUTXO{}, sub, Options{NumCores: 1, ThreadCount: 1})

	err := s.busyDwarves(context.Background(), tip, 100)
	require.NoError(t, err)
	require.Nil(t, sub.submitted)
}
