package assembler

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// buildCoinbase constructs the first transaction of the block per the
// per-mode layouts in §6: PoW pays scriptPubKeyIn the whole subsidy+fees
// from vout[0]; Hive/Pop carry the proof script in vout[0] (value 0) and
// pay the reward in vout[1]. Returns the coinbase and its (negative, by
// convention) recorded fee.
func (a *Assembler) buildCoinbase(height int32, scriptPubKeyIn []byte, mode Mode, hiveProofScript, popProofScript []byte, fees int64) (*wire.MsgTx, int64, error) {
	tx := wire.NewMsgTx(1)

	scriptSig, err := txscript.NewScriptBuilder().
		AddInt64(int64(height)).
		AddOp(txscript.OP_0).
		Script()
	if err != nil {
		return nil, 0, fmt.Errorf("coinbase scriptSig: %w", err)
	}

	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  scriptSig,
		Sequence:         wire.MaxTxInSequenceNum,
	})

	switch mode {
	case ModeHive:
		if hiveProofScript == nil {
			return nil, 0, fmt.Errorf("hive mode requires a proof script")
		}
		value := fees + a.Subsidy.HiveSubsidy()
		tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: hiveProofScript})
		tx.AddTxOut(&wire.TxOut{Value: value, PkScript: scriptPubKeyIn})
		return tx, -fees, nil

	case ModePop:
		if popProofScript == nil {
			return nil, 0, fmt.Errorf("pop mode requires a proof script")
		}
		if len(popProofScript) <= 36 {
			return nil, 0, fmt.Errorf("pop proof script too short to carry privacy flag")
		}
		isPrivate := popProofScript[36] == txscript.OP_TRUE
		subsidy := a.Subsidy.PopPublicSubsidy()
		if isPrivate {
			subsidy = a.Subsidy.PopPrivateSubsidy()
		}
		value := fees + subsidy
		tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: popProofScript})
		tx.AddTxOut(&wire.TxOut{Value: value, PkScript: scriptPubKeyIn})
		return tx, -fees, nil

	default:
		value := fees + a.Subsidy.PowSubsidy(height)
		tx.AddTxOut(&wire.TxOut{Value: value, PkScript: scriptPubKeyIn})
		return tx, -fees, nil
	}
}
