package main

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/sudo696/ring/internal/assembler"
)

// fixedSubsidy hands out flat, regtest-friendly reward amounts. A real
// deployment's subsidy schedule is chain-economics policy, not assembly
// mechanics, and lives behind the same assembler.SubsidyCalculator contract.
type fixedSubsidy struct{}

func (fixedSubsidy) PowSubsidy(int32) int64   { return 50_00000000 }
func (fixedSubsidy) HiveSubsidy() int64       { return 10_00000000 }
func (fixedSubsidy) PopPrivateSubsidy() int64 { return 5_00000000 }
func (fixedSubsidy) PopPublicSubsidy() int64  { return 5_00000000 }

// alwaysFinal treats every mempool transaction as final, standing in for
// IsFinalTx's locktime/height checks; the harness never populates a mempool
// with non-final transactions to begin with.
type alwaysFinal struct{}

func (alwaysFinal) IsFinal(*wire.MsgTx, int32, int64) bool { return true }

// noopValidator accepts every assembled block unconditionally, standing in
// for TestBlockValidity; full consensus validity checking is exercised
// through the hiveproof validator directly, not re-run by this harness.
type noopValidator struct{}

func (noopValidator) Validate(*wire.MsgBlock, assembler.TipView) error { return nil }

// noopKeyKeeper discards the coinbase key-reservation hook; wallet key
// custody is this core's explicit non-goal.
type noopKeyKeeper struct{}

func (noopKeyKeeper) KeepScript(scriptPubKeyIn []byte) {}

// noopNotifier discards the found-a-block UI hook; there is no UI layer in
// this harness.
type noopNotifier struct{}

func (noopNotifier) NotifyBlockFound() {}
