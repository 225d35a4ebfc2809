package store

import (
	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/dwarf"
)

// Interface is the narrow DCT-index contract both the real Badger-backed
// Store and Fake satisfy, matching hiveminer.WalletView's DCTs method.
type Interface interface {
	Put(d dwarf.DCT) error
	DCTs(height int32, params *chainparams.Params) ([]dwarf.DCT, error)
}

// Fake is an in-memory stand-in for Store, used in tests so they don't pay
// for a Badger database on disk.
type Fake struct {
	dcts []dwarf.DCT
}

// NewFake constructs an empty Fake.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Put(d dwarf.DCT) error {
	f.dcts = append(f.dcts, d)
	return nil
}

func (f *Fake) DCTs(height int32, params *chainparams.Params) ([]dwarf.DCT, error) {
	out := make([]dwarf.DCT, len(f.dcts))
	for i, d := range f.dcts {
		d.Status = dwarf.StatusAt(d.ConfirmedHeight, height, params.DwarfGestationBlocks, params.DwarfLifespanBlocks)
		out[i] = d
	}
	return out, nil
}
