package powminer

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/metrics"
	"github.com/sudo696/ring/pkg/clock"
	"github.com/sudo696/ring/pkg/logging"
)

func makeCoinbase() *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  []byte{0x51},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: 5_000_000_000, PkScript: []byte{0x51}})
	return tx
}

func TestIncrementExtraNonceResetsOnNewPrevHash(t *testing.T) {
	block := &wire.MsgBlock{Header: wire.BlockHeader{}}
	block.Transactions = append(block.Transactions, makeCoinbase())

	var lastPrevHash chainhash.Hash
	var extraNonce uint32

	incrementExtraNonce(block, 10, []byte("flags"), &lastPrevHash, &extraNonce)
	require.Equal(t, uint32(1), extraNonce)

	incrementExtraNonce(block, 10, []byte("flags"), &lastPrevHash, &extraNonce)
	require.Equal(t, uint32(2), extraNonce)

	block.Header.PrevBlock = chainhash.Hash{0x01}
	incrementExtraNonce(block, 10, []byte("flags"), &lastPrevHash, &extraNonce)
	require.Equal(t, uint32(1), extraNonce)
}

func TestIncrementExtraNonceScriptSigEncodesHeightAndNonce(t *testing.T) {
	block := &wire.MsgBlock{Header: wire.BlockHeader{}}
	block.Transactions = append(block.Transactions, makeCoinbase())

	var lastPrevHash chainhash.Hash
	var extraNonce uint32
	incrementExtraNonce(block, 42, []byte("tag"), &lastPrevHash, &extraNonce)

	expectedSigScript, err := txscript.NewScriptBuilder().AddInt64(43).AddInt64(1).Script()
	require.NoError(t, err)
	expectedSigScript = append(expectedSigScript, []byte("tag")...)

	require.Equal(t, expectedSigScript, block.Transactions[0].TxIn[0].SignatureScript)
}

func TestIncrementExtraNoncePanicsOnOversizedScriptSig(t *testing.T) {
	block := &wire.MsgBlock{Header: wire.BlockHeader{}}
	block.Transactions = append(block.Transactions, makeCoinbase())

	var lastPrevHash chainhash.Hash
	var extraNonce uint32
	hugeFlags := make([]byte, 200)

	require.Panics(t, func() {
		incrementExtraNonce(block, 10, hugeFlags, &lastPrevHash, &extraNonce)
	})
}

// loHasher returns a hash whose two high-order bytes are always zero,
// satisfying scanHash's cheap pre-filter on the first nonce it tries.
type loHasher struct{}

func (loHasher) PowHash(header *wire.BlockHeader) chainhash.Hash {
	var h chainhash.Hash
	h[31] = 0
	h[30] = 0
	h[0] = byte(header.Nonce)
	return h
}

// hiHasher never satisfies the cheap pre-filter.
type hiHasher struct{}

func (hiHasher) PowHash(header *wire.BlockHeader) chainhash.Hash {
	var h chainhash.Hash
	h[31] = 0xff
	return h
}

func TestScanHashFindsMatchImmediately(t *testing.T) {
	header := &wire.BlockHeader{}
	hash, nonce, found := scanHash(header, loHasher{}, nil)
	require.True(t, found)
	require.EqualValues(t, 1, nonce)
	require.Equal(t, byte(0), hash[31])
	require.Equal(t, byte(0), hash[30])
}

func TestScanHashStopsAtCheckpoint(t *testing.T) {
	header := &wire.BlockHeader{}
	_, nonce, found := scanHash(header, hiHasher{}, nil)
	require.False(t, found)
	require.EqualValues(t, nonceCheckpointMask+1, nonce)
}

func TestScanHashHonorsCancel(t *testing.T) {
	header := &wire.BlockHeader{}
	calls := 0
	cancel := func() bool {
		calls++
		return true
	}
	_, nonce, found := scanHash(header, hiHasher{}, cancel)
	require.False(t, found)
	require.EqualValues(t, nonceInterruptMask+1, nonce)
	require.Equal(t, 1, calls)
}

func TestUpdateTimeAdvancesToMedianPlusOne(t *testing.T) {
	header := &wire.BlockHeader{Timestamp: time.Unix(1000, 0)}
	delta := updateTime(header, 1000, time.Unix(1000, 0))
	require.EqualValues(t, 1, delta)
	require.Equal(t, int64(1001), header.Timestamp.Unix())
}

func TestUpdateTimeNeverMovesBackward(t *testing.T) {
	header := &wire.BlockHeader{Timestamp: time.Unix(2000, 0)}
	delta := updateTime(header, 1000, time.Unix(1000, 0))
	require.Equal(t, int64(-999), delta)
	require.Equal(t, int64(2000), header.Timestamp.Unix())
}

func TestHashToBigOrdersLikeBigEndian(t *testing.T) {
	var small, big_ chainhash.Hash
	big_[31] = 0x01
	require.Equal(t, -1, hashToBig(small).Cmp(hashToBig(big_)))
}

type fakeTip struct {
	height int32
	hash   chainhash.Hash
	bits   uint32
	t      int64
}

func (f *fakeTip) Height() int32         { return f.height }
func (f *fakeTip) Hash() chainhash.Hash  { return f.hash }
func (f *fakeTip) Bits() uint32          { return f.bits }
func (f *fakeTip) Time() int64           { return f.t }
func (f *fakeTip) MedianTimePast() int64 { return f.t }
func (f *fakeTip) IsHiveBlock() bool     { return false }
func (f *fakeTip) Prev() assembler.TipView { return nil }

type fakeChain struct {
	tip                 *fakeTip
	transactionsUpdated int64
	peerCount           int
	ibd                 bool
	regtest             bool
}

func (c *fakeChain) Tip() assembler.TipView         { return c.tip }
func (c *fakeChain) TransactionsUpdated() int64     { return c.transactionsUpdated }
func (c *fakeChain) PeerCount() int                 { return c.peerCount }
func (c *fakeChain) IsInitialBlockDownload() bool   { return c.ibd }
func (c *fakeChain) Regtest() bool                  { return c.regtest }

type fakeSubmitter struct {
	submitted *wire.MsgBlock
}

func (s *fakeSubmitter) Submit(block *wire.MsgBlock) error {
	s.submitted = block
	return nil
}

type fakeKeys struct {
	kept []byte
}

func (k *fakeKeys) KeepScript(script []byte) { k.kept = script }

type fakeNotifier struct {
	fired bool
}

func (n *fakeNotifier) NotifyBlockFound() { n.fired = true }

func newTestPool(t *testing.T, chain *fakeChain, hasher PowHasher, sub *fakeSubmitter, keys *fakeKeys, notif *fakeNotifier) *Pool {
	logger, err := logging.New(logging.DefaultConfig())
	require.NoError(t, err)
	return &Pool{
		Params:         chainparams.RegressionTestParams(),
		Hasher:         hasher,
		Chain:          chain,
		Submitter:      sub,
		Keys:           keys,
		Notifier:       notif,
		Clock:          clock.NewMockClock(time.Unix(1_700_000_000, 0)),
		Logger:         logger,
		Metrics:        metrics.New(),
		scriptPubKeyIn: []byte{0x51},
	}
}

func TestScanAndSubmitFindsAndSubmitsBlock(t *testing.T) {
	tip := &fakeTip{height: 10, bits: 0x207fffff, t: 1_700_000_000}
	chain := &fakeChain{tip: tip, regtest: true}
	sub := &fakeSubmitter{}
	keys := &fakeKeys{}
	notif := &fakeNotifier{}

	pool := newTestPool(t, chain, loHasher{}, sub, keys, notif)
	worker := &minerWorker{pool: pool}

	block := &wire.MsgBlock{Header: wire.BlockHeader{Bits: 0x207fffff, PrevBlock: tip.hash}}
	block.Transactions = append(block.Transactions, makeCoinbase())

	err := worker.scanAndSubmit(context.Background(), block, tip, 0)
	require.NoError(t, err)
	require.NotNil(t, sub.submitted)
	require.True(t, notif.fired)
	require.Equal(t, []byte{0x51}, keys.kept)
}

func TestScanAndSubmitStopsWhenPeersLost(t *testing.T) {
	tip := &fakeTip{height: 10, bits: 0x1d00ffff, t: 1_700_000_000}
	chain := &fakeChain{tip: tip, regtest: false, peerCount: 0}
	sub := &fakeSubmitter{}
	keys := &fakeKeys{}
	notif := &fakeNotifier{}

	pool := newTestPool(t, chain, hiHasher{}, sub, keys, notif)
	worker := &minerWorker{pool: pool}

	block := &wire.MsgBlock{Header: wire.BlockHeader{Bits: 0x1d00ffff, PrevBlock: tip.hash}}
	block.Transactions = append(block.Transactions, makeCoinbase())

	err := worker.scanAndSubmit(context.Background(), block, tip, 0)
	require.NoError(t, err)
	require.Nil(t, sub.submitted)
}

func TestScanAndSubmitStopsWhenTipMoves(t *testing.T) {
	tip := &fakeTip{height: 10, bits: 0x1d00ffff, t: 1_700_000_000}
	movedTip := &fakeTip{height: 11, hash: chainhash.Hash{0x09}, bits: 0x1d00ffff, t: 1_700_000_001}
	chain := &fakeChain{tip: movedTip, regtest: true}
	sub := &fakeSubmitter{}
	keys := &fakeKeys{}
	notif := &fakeNotifier{}

	pool := newTestPool(t, chain, hiHasher{}, sub, keys, notif)
	worker := &minerWorker{pool: pool}

	block := &wire.MsgBlock{Header: wire.BlockHeader{Bits: 0x1d00ffff, PrevBlock: tip.hash}}
	block.Transactions = append(block.Transactions, makeCoinbase())

	err := worker.scanAndSubmit(context.Background(), block, tip, 0)
	require.NoError(t, err)
	require.Nil(t, sub.submitted)
}

func TestScanAndSubmitStopsWhenContextCancelled(t *testing.T) {
	tip := &fakeTip{height: 10, bits: 0x1d00ffff, t: 1_700_000_000}
	chain := &fakeChain{tip: tip, regtest: true}
	sub := &fakeSubmitter{}
	keys := &fakeKeys{}
	notif := &fakeNotifier{}

	pool := newTestPool(t, chain, hiHasher{}, sub, keys, notif)
	worker := &minerWorker{pool: pool}

	block := &wire.MsgBlock{Header: wire.BlockHeader{Bits: 0x1d00ffff, PrevBlock: tip.hash}}
	block.Transactions = append(block.Transactions, makeCoinbase())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.scanAndSubmit(ctx, block, tip, 0)
	require.Error(t, err)
	require.Nil(t, sub.submitted)
}
