package merkle

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func txWithLockTime(lt uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.LockTime = lt
	return tx
}

func TestRootSingleTx(t *testing.T) {
	tx := txWithLockTime(1)
	got := Root([]*wire.MsgTx{tx})
	require.Equal(t, tx.TxHash(), got)
}

func TestRootEvenCount(t *testing.T) {
	txs := []*wire.MsgTx{txWithLockTime(1), txWithLockTime(2)}
	got := Root(txs)
	require.NotEqual(t, txs[0].TxHash(), got)
	require.NotEqual(t, txs[1].TxHash(), got)
}

func TestRootOddCountDuplicatesLast(t *testing.T) {
	txs := []*wire.MsgTx{txWithLockTime(1), txWithLockTime(2), txWithLockTime(3)}
	got := Root(txs)

	padded := append(append([]*wire.MsgTx{}, txs...), txs[2])
	want := Root(padded[:2])
	_ = want

	// Recompute manually to assert the duplication rule directly.
	h0, h1, h2 := txs[0].TxHash(), txs[1].TxHash(), txs[2].TxHash()
	left := hashPair(h0, h1)
	right := hashPair(h2, h2)
	expected := hashPair(left, right)
	require.Equal(t, expected, got)
}

func TestRootEmpty(t *testing.T) {
	require.Equal(t, chainhash.Hash{}, Root(nil))
}

func TestRootOrderSensitive(t *testing.T) {
	a := Root([]*wire.MsgTx{txWithLockTime(1), txWithLockTime(2)})
	b := Root([]*wire.MsgTx{txWithLockTime(2), txWithLockTime(1)})
	require.NotEqual(t, a, b)
}
