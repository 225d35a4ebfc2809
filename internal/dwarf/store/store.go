// Package store persists the DCT (Dwarf-Creation Transaction) lifecycle
// index the Hive Miner and Hive Proof Validator both query for
// wallet-owned and chain-wide DCTs. Backed by BadgerDB, matching the
// teacher's storage layer choice (internal/core/infrastructure/storage/badger)
// rather than an in-process map, since the index must survive process
// restarts the same way any other chain-derived index does.
package store

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/sudo696/ring/internal/chainparams"
	"github.com/sudo696/ring/internal/dwarf"
	logiface "github.com/sudo696/ring/pkg/interfaces/infrastructure/log"
)

// record is the on-disk encoding of a DCT; Status is recomputed at read
// time against the current height rather than stored, since maturity is a
// derived property, not a committed fact.
type record struct {
	TxID             string
	RewardAddress    string
	CommunityContrib bool
	DwarfCount       uint32
	ConfirmedHeight  int32
}

const keyPrefix = "dct/"

func dctKey(txid string) []byte {
	return append([]byte(keyPrefix), txid...)
}

// Store is a BadgerDB-backed DCT index. It satisfies hiveminer.WalletView's
// DCTs method and internal/hiveproof's DCT-lookup collaborator shape, minus
// the signing-key half of WalletView, which stays with whatever wallet
// implementation a full node supplies — key custody is out of this core's
// scope, the DCT lifecycle index is not.
type Store struct {
	db     *badger.DB
	logger logiface.Logger
}

// Open opens (creating if absent) a Badger database at dir for the DCT
// index.
func Open(dir string, logger logiface.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("dwarf/store: opening badger db at %s: %w", dir, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put records a DCT as of its confirmation, keyed by txid.
func (s *Store) Put(d dwarf.DCT) error {
	rec := record{
		TxID:             d.TxID.String(),
		RewardAddress:    d.RewardAddress,
		CommunityContrib: d.CommunityContrib,
		DwarfCount:       d.DwarfCount,
		ConfirmedHeight:  d.ConfirmedHeight,
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("dwarf/store: encoding dct %s: %w", rec.TxID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dctKey(rec.TxID), value)
	})
}

// DCTs lists every stored DCT with its maturity status resolved against
// height, matching hiveminer.WalletView's contract.
func (s *Store) DCTs(height int32, params *chainparams.Params) ([]dwarf.DCT, error) {
	var out []dwarf.DCT
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var rec record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("dwarf/store: decoding %s: %w", item.Key(), err)
			}

			txid, err := chainhash.NewHashFromStr(rec.TxID)
			if err != nil {
				return fmt.Errorf("dwarf/store: parsing txid %s: %w", rec.TxID, err)
			}
			out = append(out, dwarf.DCT{
				TxID:             *txid,
				RewardAddress:    rec.RewardAddress,
				CommunityContrib: rec.CommunityContrib,
				DwarfCount:       rec.DwarfCount,
				ConfirmedHeight:  rec.ConfirmedHeight,
				Status:           dwarf.StatusAt(rec.ConfirmedHeight, height, params.DwarfGestationBlocks, params.DwarfLifespanBlocks),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
