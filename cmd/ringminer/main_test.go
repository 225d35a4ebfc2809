package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sudo696/ring/internal/assembler"
)

func TestNewRootCmdRegistersSubcommandsAndFlags(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["mine"])
	require.True(t, names["hive"])
	require.True(t, names["validate"])
	require.True(t, names["dct"])

	for _, name := range []string{
		"blockmaxweight", "blockmintxfee", "blockversion", "printpriority",
		"hivecheckdelay", "hivecheckthreads", "hiveearlyout",
	} {
		require.NotNil(t, root.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
}

func TestNewEnvBuildsWithFakeStore(t *testing.T) {
	e, err := newEnv(&rootFlags{peers: 1})
	require.NoError(t, err)
	require.NotNil(t, e.chain)
	require.NotNil(t, e.wallet)
	require.True(t, e.wallet.IsAvailable())
}

func TestAssemblerHonorsBlockVersionFlag(t *testing.T) {
	e, err := newEnv(&rootFlags{peers: 1})
	require.NoError(t, err)

	a := e.assembler(&rootFlags{blockMaxWeight: e.params.MaxBlockWeight, blockVersion: 7})
	require.NotNil(t, a)

	tmpl, err := a.Assemble(e.chain.currentTip(), []byte{0x51}, assembler.ModePoW, nil, nil)
	require.NoError(t, err)
	require.Equal(t, int32(7), tmpl.Block.Header.Version)
}
