package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
	"github.com/raidar/soulbound/market"
)

const prefixOwnerIndex = "COLLECTIBLES:OWNER:"

// The ownership index keeps one msgpack string slice per account, in
// insertion order. An account with no holdings has no entry at all, absence
// and empty are the same thing.

func (bs *BadgerStore) ListHoldings(account string) ([]string, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return listHoldings(txn, account)
}

func (st *stateTxn) ListHoldings(account string) ([]string, error) {
	return listHoldings(st.txn, account)
}

// AddHolding appends without a duplicate check, repeated buys of one item by
// one account keep separate slots behind a single composite holding id.
func (st *stateTxn) AddHolding(account, itemID string) error {
	ids, err := listHoldings(st.txn, account)
	if err != nil {
		return err
	}
	ids = append(ids, itemID)
	key := []byte(prefixOwnerIndex + account)
	return st.setMetered(key, common.MsgpackMarshalPanic(ids))
}

// RemoveHolding drops the first matching slot. The account entry is deleted
// outright when its last holding goes, never stored empty.
func (st *stateTxn) RemoveHolding(account, itemID string) error {
	ids, err := listHoldings(st.txn, account)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return market.ErrNoHoldings
	}
	at := -1
	for i, id := range ids {
		if id == itemID {
			at = i
			break
		}
	}
	if at < 0 {
		return market.ErrTokenNotOwned
	}
	ids = append(ids[:at], ids[at+1:]...)

	key := []byte(prefixOwnerIndex + account)
	if len(ids) == 0 {
		return st.deleteMetered(key)
	}
	return st.setMetered(key, common.MsgpackMarshalPanic(ids))
}

func (bs *BadgerStore) CountHoldings() (uint64, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixOwnerIndex)
	it := txn.NewIterator(opts)
	defer it.Close()

	var total uint64
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return 0, err
		}
		var ids []string
		err = common.MsgpackUnmarshal(val, &ids)
		if err != nil {
			return 0, err
		}
		total += uint64(len(ids))
	}
	return total, nil
}

// ListHoldingsPaged visits accounts in key order, the limit bounds accounts
// visited, not holdings returned.
func (bs *BadgerStore) ListHoldingsPaged(skipAccounts, limitAccounts int) ([]*market.Holding, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixOwnerIndex)
	it := txn.NewIterator(opts)
	defer it.Close()

	var holdings []*market.Holding
	visited := 0
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		if skipAccounts > 0 {
			skipAccounts -= 1
			continue
		}
		if visited == limitAccounts {
			break
		}
		visited += 1

		account := string(it.Item().Key()[len(opts.Prefix):])
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var ids []string
		err = common.MsgpackUnmarshal(val, &ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			holdings = append(holdings, &market.Holding{
				Account: account,
				ItemID:  id,
			})
		}
	}
	return holdings, nil
}

func listHoldings(txn *badger.Txn, account string) ([]string, error) {
	key := []byte(prefixOwnerIndex + account)
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var ids []string
	err = common.MsgpackUnmarshal(val, &ids)
	return ids, err
}
