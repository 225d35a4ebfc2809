package main

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/dwarf"
	"github.com/sudo696/ring/internal/dwarf/store"
)

func TestChainStateSubmitExtendsTip(t *testing.T) {
	params := chainparams.RegressionTestParams()
	cs := newChainState(params, store.NewFake())

	genesis := cs.currentTip()
	require.Equal(t, int32(0), genesis.Height())

	header := &wire.BlockHeader{PrevBlock: genesis.Hash(), Bits: genesis.Bits()}
	require.NoError(t, cs.submit(header, false))

	tip := cs.currentTip()
	require.Equal(t, int32(1), tip.Height())
	require.Equal(t, header.BlockHash(), tip.Hash())
	require.Equal(t, int64(1), cs.transactionsUpdated)
}

func TestChainStateSubmitRejectsStale(t *testing.T) {
	params := chainparams.RegressionTestParams()
	cs := newChainState(params, store.NewFake())

	var wrongPrev [32]byte
	wrongPrev[0] = 1
	header := &wire.BlockHeader{PrevBlock: wrongPrev}
	require.Error(t, cs.submit(header, false))
}

func TestRegtestTipMedianTimePastFallsBackToSelf(t *testing.T) {
	tip := &regtestTip{height: 0, t: 12345}
	require.Equal(t, int64(12345), tip.MedianTimePast())

	child := &regtestTip{height: 1, t: 99999, prev: tip}
	require.Equal(t, int64(12345), child.MedianTimePast())
	require.Nil(t, tip.Prev())
	require.NotNil(t, child.Prev())
}

func TestHarnessAddressesScriptRoundTrips(t *testing.T) {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = byte(i)
	}
	addrHex := hex.EncodeToString(raw)

	a := harnessAddresses{}
	script, err := a.ScriptForAddress(addrHex)
	require.NoError(t, err)

	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	require.Equal(t, addrHex, hex.EncodeToString(addrs[0].ScriptAddress()))
}

func TestHarnessAddressesRejectsBadInput(t *testing.T) {
	a := harnessAddresses{}
	_, err := a.ScriptForAddress("not-hex")
	require.Error(t, err)

	_, err = a.ScriptForAddress(hex.EncodeToString([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestNewRandomTxIDProducesDistinctHashes(t *testing.T) {
	a, err := newRandomTxID()
	require.NoError(t, err)
	b, err := newRandomTxID()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHarnessWalletUsesSingleKeyForEveryAddress(t *testing.T) {
	w, err := newHarnessWallet(store.NewFake())
	require.NoError(t, err)
	require.True(t, w.IsAvailable())
	require.False(t, w.IsLocked())

	k1, err := w.KeyForAddress("addr-a")
	require.NoError(t, err)
	k2, err := w.KeyForAddress("addr-b")
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}

func TestHarnessUTXOResolvesConfirmedHeight(t *testing.T) {
	params := chainparams.RegressionTestParams()
	s := store.NewFake()
	txid, err := newRandomTxID()
	require.NoError(t, err)
	require.NoError(t, s.Put(dwarf.DCT{TxID: txid, ConfirmedHeight: 42, DwarfCount: 1}))

	u := &harnessUTXO{dcts: s, params: params}
	height, err := u.ConfirmedHeight(txid)
	require.NoError(t, err)
	require.Equal(t, int32(42), height)

	other, err := newRandomTxID()
	require.NoError(t, err)
	_, err = u.ConfirmedHeight(other)
	require.Error(t, err)
}
