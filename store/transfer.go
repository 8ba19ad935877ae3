package store

import (
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
	"github.com/raidar/soulbound/market"
	"github.com/shopspring/decimal"
)

const (
	prefixTransferPayload = "TRANSFERS:PAYLOAD:"
	prefixTransferState   = "TRANSFERS:STATE:"
)

// WriteTransfer is idempotent by trace id, a resubmitted call can not queue
// the same payment twice. A state regression is impossible and panics.
func (st *stateTxn) WriteTransfer(t *market.Transfer) error {
	return writeTransfer(st.txn, t)
}

func (bs *BadgerStore) WriteTransfer(t *market.Transfer) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return writeTransfer(txn, t)
	})
}

func (bs *BadgerStore) ReadTransfer(traceID string) (*market.Transfer, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readTransfer(txn, traceID)
}

func (bs *BadgerStore) ListTransfers(state int, limit int) ([]*market.Transfer, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(transferStatePrefix(state))
	it := txn.NewIterator(opts)
	defer it.Close()

	var transfers []*market.Transfer
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		t, err := readTransfer(txn, id)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
		if len(transfers) == limit {
			break
		}
	}
	return transfers, nil
}

// amounts are persisted as strings, see itemPayload
type transferPayload struct {
	TraceID   string
	Opponent  string
	Amount    string
	Memo      string
	State     int
	UpdatedAt time.Time
}

func writeTransfer(txn *badger.Txn, t *market.Transfer) error {
	old, err := readTransfer(txn, t.TraceID)
	if err != nil {
		return err
	}
	if old != nil {
		if old.State >= t.State {
			return nil
		}
		key := buildTransferTimedKey(old)
		_, err = txn.Get(key)
		if err != nil {
			panic(t.TraceID)
		}
		err = txn.Delete(key)
		if err != nil {
			return err
		}
	}

	key := []byte(prefixTransferPayload + t.TraceID)
	val := common.MsgpackMarshalPanic(transferPayload{
		TraceID:   t.TraceID,
		Opponent:  t.Opponent,
		Amount:    t.Amount.String(),
		Memo:      t.Memo,
		State:     t.State,
		UpdatedAt: t.UpdatedAt,
	})
	err = txn.Set(key, val)
	if err != nil {
		return err
	}
	return txn.Set(buildTransferTimedKey(t), []byte{1})
}

func readTransfer(txn *badger.Txn, traceID string) (*market.Transfer, error) {
	key := []byte(prefixTransferPayload + traceID)
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
	var p transferPayload
	err = common.MsgpackUnmarshal(val, &p)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		panic(p.Amount)
	}
	return &market.Transfer{
		TraceID:   p.TraceID,
		Opponent:  p.Opponent,
		Amount:    amount,
		Memo:      p.Memo,
		State:     p.State,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func buildTransferTimedKey(t *market.Transfer) []byte {
	buf := tsToBytes(t.UpdatedAt)
	prefix := transferStatePrefix(t.State)
	key := append([]byte(prefix), buf...)
	return append(key, []byte(t.TraceID)...)
}

func transferStatePrefix(state int) string {
	prefix := prefixTransferState
	switch state {
	case market.TransferStateInitial:
		return prefix + "initial"
	case market.TransferStateDone:
		return prefix + "doneeee"
	}
	panic(state)
}
