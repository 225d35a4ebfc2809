// This file wires a minimal in-memory regtest chain and the narrow
// external-collaborator stand-ins (network, wallet, UTXO, address
// encoding) the miners need to run standalone, for local experimentation
// against regtest parameters. None of it is a node: networking, wallet key
// custody, the UTXO/coin database, and block storage are this core's
// explicit non-goals, so a real deployment wires Pool/Supervisor against
// its own implementations of these same narrow interfaces instead.
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/dwarf"
	"github.com/sudo696/ring/internal/dwarf/store"
	"github.com/sudo696/ring/internal/hiveminer"
	"github.com/sudo696/ring/internal/minotaur"
)

// regtestTip is a linked chain-index node, implementing both
// assembler.TipView and hiveminer.TipView.
type regtestTip struct {
	height int32
	hash   chainhash.Hash
	bits   uint32
	t      int64
	isHive bool
	prev   *regtestTip
}

func (t *regtestTip) Height() int32        { return t.height }
func (t *regtestTip) Hash() chainhash.Hash { return t.hash }
func (t *regtestTip) Bits() uint32         { return t.bits }
func (t *regtestTip) Time() int64          { return t.t }
func (t *regtestTip) IsHiveBlock() bool    { return t.isHive }

// MedianTimePast is simplified to the immediate predecessor's timestamp;
// a real node's 11-block median is chain-storage state this core doesn't
// own.
func (t *regtestTip) MedianTimePast() int64 {
	if t.prev != nil {
		return t.prev.t
	}
	return t.t
}

func (t *regtestTip) Prev() assembler.TipView {
	if t.prev == nil {
		return nil
	}
	return t.prev
}

// DeterministicRandString derives a per-window scoping string from the
// tip hash, standing in for GetDeterministicRandString (§ GLOSSARY notes
// its exact upstream formula lives outside the retrieval pack).
func (t *regtestTip) DeterministicRandString() string {
	return hex.EncodeToString(t.hash[:8])
}

// chainState is the harness's entire "node": one mutable tip pointer and
// the DCT index both miners read from.
type chainState struct {
	mu                  sync.Mutex
	tip                 *regtestTip
	transactionsUpdated int64
	dcts                store.Interface
	params              *chainparams.Params
}

func newChainState(params *chainparams.Params, dcts store.Interface) *chainState {
	genesis := &regtestTip{height: 0, bits: blockchain.BigToCompact(params.PowLimit), t: 1_700_000_000}
	return &chainState{tip: genesis, dcts: dcts, params: params}
}

func (c *chainState) currentTip() *regtestTip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tip
}

// submit appends a block atop the current tip if it still extends it,
// matching ProcessNewBlock's bare-minimum contract for this harness:
// reject stale submissions, otherwise accept unconditionally (full
// consensus validity checking is this core's BlockValidator collaborator,
// exercised separately, not re-run here).
func (c *chainState) submit(header *wire.BlockHeader, isHive bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if header.PrevBlock != c.tip.hash {
		return fmt.Errorf("harness: block does not extend current tip")
	}

	next := &regtestTip{
		height: c.tip.height + 1,
		hash:   header.BlockHash(),
		bits:   header.Bits,
		t:      header.Timestamp.Unix(),
		isHive: isHive,
		prev:   c.tip,
	}
	c.tip = next
	c.transactionsUpdated++
	return nil
}

// powChain adapts chainState to powminer.ChainSource.
type powChain struct {
	*chainState
	network *networkStub
}

func (c powChain) Tip() assembler.TipView       { return c.currentTip() }
func (c powChain) TransactionsUpdated() int64   { c.mu.Lock(); defer c.mu.Unlock(); return c.transactionsUpdated }
func (c powChain) PeerCount() int               { return c.network.PeerCount() }
func (c powChain) IsInitialBlockDownload() bool { return c.network.IsInitialBlockDownload() }
func (c powChain) Regtest() bool                { return true }

// hiveChain adapts chainState to hiveminer.ChainSource.
type hiveChain struct {
	*chainState
}

func (c hiveChain) Tip() hiveminer.TipView { return c.currentTip() }

// powSubmitter and hiveSubmitter record which mode produced a block, since
// powminer.Submitter and hiveminer.Submitter take differently-shaped
// arguments (*wire.MsgBlock vs *assembler.Template).
type powSubmitter struct{ chain *chainState }

func (s powSubmitter) Submit(block *wire.MsgBlock) error {
	return s.chain.submit(&block.Header, false)
}

type hiveSubmitter struct{ chain *chainState }

func (s hiveSubmitter) Submit(tmpl *assembler.Template) error {
	return s.chain.submit(&tmpl.Block.Header, true)
}

// networkStub reports a fixed, configurable peer/IBD state; wiring a real
// p2p stack is this core's explicit non-goal.
type networkStub struct {
	peers int
	ibd   bool
}

func (n *networkStub) PeerCount() int               { return n.peers }
func (n *networkStub) IsInitialBlockDownload() bool { return n.ibd }

// harnessWallet satisfies hiveminer.WalletView over a DCT store and a
// single locally-generated signing key, reused for every reward address.
// Real wallet key custody (per-address keys, encrypted storage) is this
// core's explicit non-goal.
type harnessWallet struct {
	dcts   store.Interface
	key    *btcec.PrivateKey
	locked bool
}

func newHarnessWallet(dcts store.Interface) (*harnessWallet, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("harness: generating wallet key: %w", err)
	}
	return &harnessWallet{dcts: dcts, key: key}, nil
}

func (w *harnessWallet) IsAvailable() bool { return true }
func (w *harnessWallet) IsLocked() bool    { return w.locked }
func (w *harnessWallet) DCTs(height int32, params *chainparams.Params) ([]dwarf.DCT, error) {
	return w.dcts.DCTs(height, params)
}
func (w *harnessWallet) KeyForAddress(address string) (*btcec.PrivateKey, error) {
	return w.key, nil
}

// harnessUTXO resolves a DCT's confirmation height by scanning the store,
// standing in for pcoinsTip->GetCoin.
type harnessUTXO struct {
	dcts   store.Interface
	params *chainparams.Params
}

func (u *harnessUTXO) ConfirmedHeight(txid chainhash.Hash) (int32, error) {
	all, err := u.dcts.DCTs(0, u.params)
	if err != nil {
		return 0, err
	}
	for _, d := range all {
		if d.TxID == txid {
			return d.ConfirmedHeight, nil
		}
	}
	return 0, fmt.Errorf("harness: no dct found for txid %s", txid)
}

// harnessAddresses encodes a raw hex-encoded 20-byte hash160 "address" as
// a standard P2PKH script under regtest parameters. Real bech32/base58check
// address decoding is this core's explicit non-goal; the harness uses the
// plainest possible address representation that still round-trips through
// btcutil/txscript.
type harnessAddresses struct{}

func (harnessAddresses) ScriptForAddress(address string) ([]byte, error) {
	raw, err := hex.DecodeString(address)
	if err != nil || len(raw) != 20 {
		return nil, fmt.Errorf("harness: address must be a 20-byte hex hash160")
	}
	addr, err := btcutil.NewAddressPubKeyHash(raw, &chaincfg.RegressionNetParams)
	if err != nil {
		return nil, fmt.Errorf("harness: building address: %w", err)
	}
	return txscript.PayToAddrScript(addr)
}

// newRandomTxID generates a fresh, non-chain-derived txid for `dct create`,
// simulating a confirmed DCT-funding transaction this harness never
// actually builds or broadcasts — mempool and UTXO handling are this
// core's explicit non-goals.
func newRandomTxID() (chainhash.Hash, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(raw[:]), nil
}

// blockHeaderHasher adapts minotaur.Hasher to powminer.PowHasher by hashing
// the header's serialized bytes, the same "one hash function per PoW path"
// resolution the governing design notes settle on.
type blockHeaderHasher struct{ h minotaur.Hasher }

func (b blockHeaderHasher) PowHash(header *wire.BlockHeader) chainhash.Hash {
	var buf bytes.Buffer
	_ = header.Serialize(&buf)
	return b.h.HashArbitrary(hex.EncodeToString(buf.Bytes()))
}
