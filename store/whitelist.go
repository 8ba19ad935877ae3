package store

import (
	"github.com/dgraph-io/badger/v3"
)

const prefixWhitelist = "COLLECTIBLES:WHITELIST:"

func (st *stateTxn) AddWhitelisted(account string) error {
	key := []byte(prefixWhitelist + account)
	return st.txn.Set(key, []byte{1})
}

func (st *stateTxn) RemoveWhitelisted(account string) error {
	key := []byte(prefixWhitelist + account)
	err := st.txn.Delete(key)
	if err == badger.ErrKeyNotFound {
		return nil
	}
	return err
}

func (bs *BadgerStore) IsWhitelisted(account string) (bool, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	_, err := txn.Get([]byte(prefixWhitelist + account))
	if err == badger.ErrKeyNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (bs *BadgerStore) ListWhitelist() ([]string, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixWhitelist)
	it := txn.NewIterator(opts)
	defer it.Close()

	var accounts []string
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		accounts = append(accounts, string(it.Item().Key()[len(opts.Prefix):]))
	}
	return accounts, nil
}
