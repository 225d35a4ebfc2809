package main

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/dwarf"
	"github.com/sudo696/ring/internal/dwarf/store"
)

func p2pkhScript(t *testing.T, hash160 []byte) []byte {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(hash160, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

func TestCoinbaseViewExtractsRewardAddress(t *testing.T) {
	hash160 := make([]byte, 20)
	for i := range hash160 {
		hash160[i] = byte(i + 1)
	}

	cbTx := wire.NewMsgTx(1)
	cbTx.AddTxOut(wire.NewTxOut(0, []byte{0x6a, 0x01, 0x02})) // dummy OP_RETURN proof output
	cbTx.AddTxOut(wire.NewTxOut(5000, p2pkhScript(t, hash160)))

	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{cbTx}}
	cb, err := coinbaseView(block)
	require.NoError(t, err)
	require.Equal(t, 2, cb.VoutCount)
	require.Equal(t, "0102030405060708090a0b0c0d0e0f1011121314", cb.RewardAddress)
}

func TestCoinbaseViewRejectsTooFewOutputs(t *testing.T) {
	cbTx := wire.NewMsgTx(1)
	cbTx.AddTxOut(wire.NewTxOut(0, []byte{0x6a}))
	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{cbTx}}
	_, err := coinbaseView(block)
	require.Error(t, err)
}

func TestHarnessDCTLookupSplitsCommunityAmount(t *testing.T) {
	params := chainparams.RegressionTestParams()
	s := store.NewFake()

	txid, err := newRandomTxID()
	require.NoError(t, err)
	require.NoError(t, s.Put(dwarf.DCT{
		TxID:             txid,
		RewardAddress:    "reward",
		CommunityContrib: true,
		DwarfCount:       10,
		ConfirmedHeight:  5,
	}))

	lookup := &harnessDCTLookup{dcts: s, params: params}
	info, found, err := lookup.Lookup(txid)
	require.NoError(t, err)
	require.True(t, found)

	total := int64(10) * params.DwarfCost
	expectedCommunity := total / params.CommunityContribFactor
	require.Equal(t, expectedCommunity, info.CommunityAmount)
	require.Equal(t, total-expectedCommunity, info.Value)
	require.True(t, info.HasCommunityOutput)
	require.Equal(t, int32(5), info.ConfirmedHeight)
}

func TestHarnessDCTLookupMissingTxID(t *testing.T) {
	params := chainparams.RegressionTestParams()
	lookup := &harnessDCTLookup{dcts: store.NewFake(), params: params}

	txid, err := newRandomTxID()
	require.NoError(t, err)
	_, found, err := lookup.Lookup(txid)
	require.NoError(t, err)
	require.False(t, found)
}

func TestHiveDifficultyViewWalksPrev(t *testing.T) {
	root := &regtestTip{height: 0, bits: 0x1d00ffff}
	child := &regtestTip{height: 1, bits: 0x1d00ffff, prev: root}

	v := hiveDifficultyView{child}
	require.Equal(t, int32(1), v.Height())
	require.NotNil(t, v.Prev())
	require.Nil(t, hiveDifficultyView{root}.Prev())
}

func TestValidateChainViewDeterministicRandString(t *testing.T) {
	tip := &regtestTip{height: 0, hash: [32]byte{1, 2, 3}}
	v := validateChainView{tip}
	require.Equal(t, tip.DeterministicRandString(), v.DeterministicRandString())
}
