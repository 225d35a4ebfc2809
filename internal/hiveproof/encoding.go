// Package hiveproof encodes and validates the Hive proof embedded in a
// Hive block's coinbase vout[0], grounded bit-exactly on CheckHiveProof
// (pow.cpp lines 239-523).
package hiveproof

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// OpDwarf is the custom opcode marking a Hive proof OP_RETURN payload, the
// byte written immediately after OP_RETURN at scriptPubKey[1].
const OpDwarf = txscript.OP_NOP10

// Proof is the decoded content of a Hive block's vout[0] OP_RETURN script.
type Proof struct {
	DwarfNonce        uint32
	DCTClaimedHeight  uint32
	CommunityContrib  bool
	TxID              string // 64 hex chars, as embedded upstream
	MessageSig        [65]byte
}

// minEncodedLen is the 144-byte floor CheckHiveProof requires of vout[0]'s
// script before it will even attempt to parse it.
const minEncodedLen = 144

// Encode serializes a Proof into the exact OP_RETURN byte layout
// CheckHiveProof parses:
//
//	[0]      OP_RETURN
//	[1]      OP_DWARF
//	[2]      0x04                  (size marker)
//	[3:7]    dwarfNonce, LE32
//	[7]      0x04                  (size marker)
//	[8:12]   dctClaimedHeight, LE32
//	[12]     OP_TRUE or OP_FALSE   (communityContrib)
//	[13]     0x40                  (size marker, 64)
//	[14:78]  txid, ASCII hex
//	[78]     0x41                  (size marker, 65)
//	[79:144] messageSig
func Encode(p Proof) ([]byte, error) {
	if len(p.TxID) != 64 {
		return nil, fmt.Errorf("hiveproof: txid must be 64 hex chars, got %d", len(p.TxID))
	}

	buf := make([]byte, minEncodedLen)
	buf[0] = txscript.OP_RETURN
	buf[1] = OpDwarf
	buf[2] = 0x04
	binary.LittleEndian.PutUint32(buf[3:7], p.DwarfNonce)
	buf[7] = 0x04
	binary.LittleEndian.PutUint32(buf[8:12], p.DCTClaimedHeight)
	if p.CommunityContrib {
		buf[12] = txscript.OP_TRUE
	} else {
		buf[12] = txscript.OP_FALSE
	}
	buf[13] = 0x40
	copy(buf[14:78], []byte(p.TxID))
	buf[78] = 0x41
	copy(buf[79:144], p.MessageSig[:])
	return buf, nil
}

// Decode parses a coinbase vout[0].scriptPubKey into a Proof, rejecting
// anything that doesn't satisfy the length and marker-byte checks
// CheckHiveProof performs before trusting any field.
func Decode(script []byte) (Proof, error) {
	var p Proof
	if len(script) < minEncodedLen {
		return p, fmt.Errorf("hiveproof: scriptPubKey too short to contain hive proof encodings")
	}
	if script[0] != txscript.OP_RETURN || script[1] != OpDwarf {
		return p, fmt.Errorf("hiveproof: scriptPubKey doesn't start OP_RETURN OP_DWARF")
	}
	p.DwarfNonce = binary.LittleEndian.Uint32(script[3:7])
	p.DCTClaimedHeight = binary.LittleEndian.Uint32(script[8:12])
	p.CommunityContrib = script[12] == txscript.OP_TRUE
	p.TxID = string(script[14:78])
	copy(p.MessageSig[:], script[79:144])
	return p, nil
}
