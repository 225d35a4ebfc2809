package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sudo696/ring/internal/dwarf"
)

func newDCTCmd(f *rootFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "dct",
		Short: "Seed or list DCTs in the harness's dwarf index",
	}
	root.AddCommand(newDCTCreateCmd(f))
	root.AddCommand(newDCTListCmd(f))
	return root
}

func newDCTCreateCmd(f *rootFlags) *cobra.Command {
	var (
		rewardHex        string
		communityContrib bool
		dwarfCount       uint32
		confirmedHeight  int32
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a synthetic confirmed DCT for local hive mining",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(f)
			if err != nil {
				return err
			}

			txid, err := newRandomTxID()
			if err != nil {
				return fmt.Errorf("ringminer: generating dct txid: %w", err)
			}

			d := dwarf.DCT{
				TxID:             txid,
				RewardAddress:    rewardHex,
				CommunityContrib: communityContrib,
				DwarfCount:       dwarfCount,
				ConfirmedHeight:  confirmedHeight,
			}
			if err := e.dcts.Put(d); err != nil {
				return fmt.Errorf("ringminer: storing dct: %w", err)
			}

			fmt.Println(txid.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&rewardHex, "reward", "", "20-byte hex hash160 the dct pays")
	cmd.Flags().BoolVar(&communityContrib, "community", false, "mark the dct as paying the community fund")
	cmd.Flags().Uint32Var(&dwarfCount, "dwarves", 1, "dwarf count this dct mints")
	cmd.Flags().Int32Var(&confirmedHeight, "height", 0, "height the dct confirmed at")
	_ = cmd.MarkFlagRequired("reward")

	return cmd
}

func newDCTListCmd(f *rootFlags) *cobra.Command {
	var atHeight int32

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List DCTs and their maturity status at a given height",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(f)
			if err != nil {
				return err
			}

			dcts, err := e.dcts.DCTs(atHeight, e.params)
			if err != nil {
				return fmt.Errorf("ringminer: listing dcts: %w", err)
			}
			for _, d := range dcts {
				fmt.Printf("%s dwarves=%d status=%s height=%d reward=%s\n", d.TxID, d.DwarfCount, d.Status, d.ConfirmedHeight, d.RewardAddress)
			}
			return nil
		},
	}

	cmd.Flags().Int32Var(&atHeight, "height", 0, "chain height to resolve maturity against")

	return cmd
}
