// Package minotaur defines the narrow interface through which this core
// consumes the node's base hash primitive. The primitive itself
// (MinotaurHashArbitrary) is an external collaborator per the governing
// spec's non-goals — this package never implements it, only the contract
// the Hive Miner and Hive Proof Validator need: a deterministic,
// arbitrary-length-input hash that agrees bit-for-bit between producer and
// verifier.
package minotaur

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Hasher computes the chain's base proof-of-work/dwarf hash over an
// arbitrary string, matching MinotaurHashArbitrary's signature upstream.
type Hasher interface {
	HashArbitrary(s string) chainhash.Hash
}

// DoubleSHA256Hasher is a stand-in Hasher used by tests and by any
// deployment that has not wired a real external hash-primitive provider.
// It is deliberately not a security claim about the real primitive: it
// only needs to be deterministic and injective enough for dwarf-binning
// tests to exercise the search and validation code paths identically.
type DoubleSHA256Hasher struct{}

func (DoubleSHA256Hasher) HashArbitrary(s string) chainhash.Hash {
	return chainhash.DoubleHashH([]byte(s))
}
