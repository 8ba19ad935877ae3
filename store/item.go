package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
	"github.com/raidar/soulbound/market"
	"github.com/shopspring/decimal"
)

const prefixItemPayload = "COLLECTIBLES:ITEM:"

// amounts are persisted as strings, the msgpack codec has no business with
// decimal internals
type itemPayload struct {
	ItemID      string
	Name        string
	Description string
	Extra       string `msgpack:",omitempty"`
	Price       string
	Creator     string
}

func (bs *BadgerStore) ReadItem(itemID string) (*market.Item, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readItem(txn, itemID)
}

func (st *stateTxn) ReadItem(itemID string) (*market.Item, error) {
	return readItem(st.txn, itemID)
}

// WriteItem inserts or overwrites by item id, resubmission of the same id is
// accepted behavior.
func (st *stateTxn) WriteItem(item *market.Item) error {
	key := []byte(prefixItemPayload + item.ItemID)
	val := common.MsgpackMarshalPanic(itemPayload{
		ItemID:      item.ItemID,
		Name:        item.Name,
		Description: item.Description,
		Extra:       item.Extra,
		Price:       item.Price.String(),
		Creator:     item.Creator,
	})
	return st.setMetered(key, val)
}

func readItem(txn *badger.Txn, itemID string) (*market.Item, error) {
	key := []byte(prefixItemPayload + itemID)
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
	var p itemPayload
	err = common.MsgpackUnmarshal(val, &p)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		panic(p.Price)
	}
	return &market.Item{
		ItemID:      p.ItemID,
		Name:        p.Name,
		Description: p.Description,
		Extra:       p.Extra,
		Price:       price,
		Creator:     p.Creator,
	}, nil
}
