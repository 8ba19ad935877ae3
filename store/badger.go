package store

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/dgraph-io/badger/v3"
	"github.com/raidar/soulbound/market"
)

const propertyStorageUsed = "STATE:STORAGE:USED"

type BadgerStore struct {
	db *badger.DB
}

func OpenBadger(ctx context.Context, path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			lsm, vlog := db.Size()
			logger.Printf("Badger LSM %d VLOG %d\n", lsm, vlog)
			if lsm > 1024*1024*8 || vlog > 1024*1024*32 {
				err := db.RunValueLogGC(0.5)
				logger.Printf("Badger RunValueLogGC %v\n", err)
			}
			time.Sleep(5 * time.Minute)
		}
	}()

	return &BadgerStore{
		db: db,
	}, nil
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

func (bs *BadgerStore) Badger() *badger.DB {
	return bs.db
}

func (bs *BadgerStore) WriteProperty(key, val []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) ReadProperty(key []byte) ([]byte, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Update runs fn inside one badger transaction. The metered byte counter is
// loaded at the start and persisted by the same transaction, so an aborted fn
// leaves it untouched together with everything else it wrote.
func (bs *BadgerStore) Update(fn func(market.StateTxn) error) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		used, err := readStorageUsed(txn)
		if err != nil {
			return err
		}
		st := &stateTxn{txn: txn, used: used}
		err = fn(st)
		if err != nil {
			return err
		}
		return writeStorageUsed(txn, st.used)
	})
}

func (bs *BadgerStore) StorageUsed() (uint64, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readStorageUsed(txn)
}

// stateTxn implements market.StateTxn over a single badger transaction. The
// catalog and the ownership index go through the metered setters, transfer
// intents and the whitelist are host side bookkeeping and cost nothing.
type stateTxn struct {
	txn  *badger.Txn
	used uint64
}

func (st *stateTxn) StorageUsed() (uint64, error) {
	return st.used, nil
}

func (st *stateTxn) setMetered(key, val []byte) error {
	before, found, err := entrySize(st.txn, key)
	if err != nil {
		return err
	}
	err = st.txn.Set(key, val)
	if err != nil {
		return err
	}
	if !found {
		before = 0
	}
	st.used = st.used - before + uint64(len(key)+len(val))
	return nil
}

func (st *stateTxn) deleteMetered(key []byte) error {
	before, found, err := entrySize(st.txn, key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	err = st.txn.Delete(key)
	if err != nil {
		return err
	}
	st.used = st.used - before
	return nil
}

func entrySize(txn *badger.Txn, key []byte) (uint64, bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, false, err
	}
	return uint64(len(key) + len(val)), true, nil
}

func readStorageUsed(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get([]byte(propertyStorageUsed))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		panic(len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func writeStorageUsed(txn *badger.Txn, used uint64) error {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, used)
	return txn.Set([]byte(propertyStorageUsed), val)
}
