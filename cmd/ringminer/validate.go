package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"

	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/difficulty"
	"github.com/sudo696/ring/internal/dwarf/store"
	"github.com/sudo696/ring/internal/hiveproof"
)

func newValidateCmd(f *rootFlags) *cobra.Command {
	var blockFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a standalone-assembled Hive block's proof against the current tip",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(f)
			if err != nil {
				return err
			}

			raw, err := readBlockHex(blockFile)
			if err != nil {
				return err
			}

			block := &wire.MsgBlock{}
			if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
				return fmt.Errorf("ringminer: decoding block: %w", err)
			}

			cb, err := coinbaseView(block)
			if err != nil {
				return err
			}

			tip := e.chain.currentTip()
			hiveTargetBits := difficulty.GetNextHiveWorkRequired(hiveDifficultyView{tip}, e.params)

			lookup := &harnessDCTLookup{dcts: e.dcts, params: e.params}

			if err := hiveproof.Validate(validateChainView{tip}, tip.Height()+1, cb, e.params, e.hasher, hiveTargetBits, lookup); err != nil {
				return fmt.Errorf("ringminer: hive proof rejected: %w", err)
			}

			e.logger.Info("ringminer: hive proof accepted")
			return nil
		},
	}

	cmd.Flags().StringVar(&blockFile, "block", "", "path to a hex-encoded serialized block (- for stdin)")
	_ = cmd.MarkFlagRequired("block")

	return cmd
}

func readBlockHex(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("ringminer: reading block file: %w", err)
	}
	raw, err := hex.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("ringminer: decoding hex: %w", err)
	}
	return raw, nil
}

func readAllStdin() ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(os.Stdin)
	return buf.Bytes(), err
}

// coinbaseView extracts the narrow fields hiveproof.Validate needs from a
// block's coinbase transaction.
func coinbaseView(block *wire.MsgBlock) (hiveproof.CoinbaseView, error) {
	if len(block.Transactions) == 0 {
		return hiveproof.CoinbaseView{}, fmt.Errorf("ringminer: block has no transactions")
	}
	cb := block.Transactions[0]
	if len(cb.TxOut) < 2 {
		return hiveproof.CoinbaseView{}, fmt.Errorf("ringminer: coinbase has fewer than 2 outputs")
	}

	rewardAddr, err := addressFromScript(cb.TxOut[1].PkScript)
	if err != nil {
		return hiveproof.CoinbaseView{}, fmt.Errorf("ringminer: decoding reward script: %w", err)
	}

	return hiveproof.CoinbaseView{
		Vout0Script:   cb.TxOut[0].PkScript,
		RewardScript:  cb.TxOut[1].PkScript,
		RewardAddress: rewardAddr,
		VoutCount:     len(cb.TxOut),
		ContainsDCT:   false, // the harness never embeds DCTs in its own assembled blocks
	}, nil
}

// addressFromScript decodes a P2PKH script's hash160 into the same hex
// representation harnessAddresses.ScriptForAddress and
// hiveproof.AddressFromPubKey both use.
func addressFromScript(script []byte) (string, error) {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, &chaincfg.RegressionNetParams)
	if err != nil {
		return "", err
	}
	if len(addrs) != 1 {
		return "", fmt.Errorf("unexpected address count %d", len(addrs))
	}
	pkHashAddr, ok := addrs[0].(*btcutil.AddressPubKeyHash)
	if !ok {
		return "", fmt.Errorf("script is not a standard p2pkh")
	}
	return hex.EncodeToString(pkHashAddr.Hash160()[:]), nil
}

// hiveDifficultyView adapts *regtestTip to difficulty.BlockView.
type hiveDifficultyView struct{ t *regtestTip }

func (v hiveDifficultyView) Height() int32     { return v.t.Height() }
func (v hiveDifficultyView) Bits() uint32      { return v.t.Bits() }
func (v hiveDifficultyView) Time() int64       { return v.t.Time() }
func (v hiveDifficultyView) IsHiveBlock() bool { return v.t.IsHiveBlock() }
func (v hiveDifficultyView) Prev() difficulty.BlockView {
	if v.t.prev == nil {
		return nil
	}
	return hiveDifficultyView{v.t.prev}
}

// validateChainView adapts *regtestTip to hiveproof.ChainView.
type validateChainView struct{ t *regtestTip }

func (v validateChainView) Height() int32     { return v.t.Height() }
func (v validateChainView) IsHiveBlock() bool { return v.t.IsHiveBlock() }
func (v validateChainView) Prev() hiveproof.ChainView {
	if v.t.prev == nil {
		return nil
	}
	return validateChainView{v.t.prev}
}
func (v validateChainView) DeterministicRandString() string { return v.t.DeterministicRandString() }

// harnessDCTLookup resolves a DCTLookup by scanning the dct store and
// synthesizing the value/community-output figures a real UTXO set would
// report, since this harness never actually funds DCTs on-chain: a DCT's
// full funding is DwarfCount*DwarfCost, split between the reward output and
// (when the proof claims a community contribution) a community output of
// exactly funding/CommunityContribFactor, matching the split
// hiveproof.Validate checks for.
type harnessDCTLookup struct {
	dcts   store.Interface
	params *chainparams.Params
}

func (l *harnessDCTLookup) Lookup(txid chainhash.Hash) (hiveproof.DCTInfo, bool, error) {
	all, err := l.dcts.DCTs(0, l.params)
	if err != nil {
		return hiveproof.DCTInfo{}, false, err
	}
	for _, d := range all {
		if d.TxID != txid {
			continue
		}
		total := int64(d.DwarfCount) * l.params.DwarfCost
		communityAmount := int64(0)
		if d.CommunityContrib {
			communityAmount = total / l.params.CommunityContribFactor
		}
		return hiveproof.DCTInfo{
			Value:              total - communityAmount,
			RewardAddress:      d.RewardAddress,
			ConfirmedHeight:    d.ConfirmedHeight,
			HasCommunityOutput: d.CommunityContrib,
			CommunityAmount:    communityAmount,
		}, true, nil
	}
	return hiveproof.DCTInfo{}, false, nil
}
