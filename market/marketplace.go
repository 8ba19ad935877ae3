package market

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const DefaultPageLimit = 50

// Call is the host envelope of one operation, the caller identity and the
// payment attached to the call. The host validates both before they reach
// the ledger.
type Call struct {
	TraceID string          `json:"trace_id,omitempty"`
	Caller  string          `json:"caller"`
	Deposit decimal.Decimal `json:"deposit"`
}

func (c *Call) normalize() {
	if c.TraceID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			panic(err)
		}
		c.TraceID = id.String()
	}
}

// Marketplace is the single authority ledger over the catalog and the
// ownership index. One call fully completes before the next is processed,
// the mutex is the whole concurrency model.
type Marketplace struct {
	sync.Mutex
	store    Store
	sink     EventSink
	conf     *Configuration
	clock    *Clock
	byteCost decimal.Decimal
}

func NewMarketplace(store Store, sink EventSink, conf *Configuration) (*Marketplace, error) {
	cost, err := decimal.NewFromString(conf.ByteCost)
	if err != nil || cost.IsNegative() {
		return nil, fmt.Errorf("invalid byte cost %s", conf.ByteCost)
	}
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	return &Marketplace{
		store:    store,
		sink:     sink,
		conf:     conf,
		clock:    clock,
		byteCost: cost,
	}, nil
}

func (m *Marketplace) requireOwner(call *Call) error {
	if call.Caller != m.conf.Owner {
		return ErrUnauthorized
	}
	return nil
}

// Mint inserts a catalog record with the caller as creator and charges the
// deposit for the storage growth. No holding is created by mint itself.
func (m *Marketplace) Mint(ctx context.Context, call *Call, data *ItemCreation) (*Item, error) {
	call.normalize()
	if !ValidAccountID(call.Caller) {
		return nil, ErrInvalidAccount
	}
	if data == nil {
		return nil, ErrInvalidItemID
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	if m.conf.EnforceWhitelist {
		ok, err := m.store.IsWhitelisted(call.Caller)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotWhitelisted
		}
	}
	item := &Item{
		ItemID:      data.ItemID,
		Name:        data.Name,
		Description: data.Description,
		Extra:       data.Extra,
		Price:       data.Price,
		Creator:     call.Caller,
	}

	m.Lock()
	defer m.Unlock()

	err := m.store.Update(func(txn StateTxn) error {
		before, err := txn.StorageUsed()
		if err != nil {
			return err
		}
		err = txn.WriteItem(item)
		if err != nil {
			return err
		}
		after, err := txn.StorageUsed()
		if err != nil {
			return err
		}
		return m.settleDeposit(txn, call, int64(after)-int64(before), decimal.Zero)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Buy forwards the price to the creator, adds a holding for the caller and
// settles the storage delta out of whatever deposit remains. Any failure
// aborts the transaction with no partial state, payment intent included.
func (m *Marketplace) Buy(ctx context.Context, call *Call, itemID string) (*TokenMetadata, error) {
	call.normalize()
	if !ValidAccountID(call.Caller) {
		return nil, ErrInvalidAccount
	}

	m.Lock()
	defer m.Unlock()

	var meta *TokenMetadata
	var evt *TokenEvent
	err := m.store.Update(func(txn StateTxn) error {
		item, err := txn.ReadItem(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrItemNotFound
		}
		if call.Deposit.Cmp(item.Price) < 0 {
			return &InsufficientDepositError{Required: item.Price}
		}
		if item.Price.Sign() > 0 {
			err = txn.WriteTransfer(&Transfer{
				TraceID:   deriveTraceID(call.TraceID, "payment"),
				Opponent:  item.Creator,
				Amount:    item.Price,
				Memo:      "payment",
				State:     TransferStateInitial,
				UpdatedAt: m.clock.Now(),
			})
			if err != nil {
				return err
			}
		}
		before, err := txn.StorageUsed()
		if err != nil {
			return err
		}
		err = txn.AddHolding(call.Caller, itemID)
		if err != nil {
			return err
		}
		after, err := txn.StorageUsed()
		if err != nil {
			return err
		}
		err = m.settleDeposit(txn, call, int64(after)-int64(before), item.Price)
		if err != nil {
			return err
		}
		meta = m.asTokenMetadata(item)
		evt = &TokenEvent{
			Type:      EventTypeMint,
			HoldingID: EncodeHoldingID(call.Caller, itemID),
			Account:   call.Caller,
			CreatedAt: m.clock.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.sink.Notify(ctx, evt)
	return meta, nil
}

// BuyForUser grants a holding to an account with no payment transfer. Owner
// only.
func (m *Marketplace) BuyForUser(ctx context.Context, call *Call, itemID, account string) (*TokenMetadata, error) {
	call.normalize()
	if err := m.requireOwner(call); err != nil {
		return nil, err
	}
	if !ValidAccountID(account) {
		return nil, ErrInvalidAccount
	}

	m.Lock()
	defer m.Unlock()

	var meta *TokenMetadata
	var evt *TokenEvent
	err := m.store.Update(func(txn StateTxn) error {
		item, err := txn.ReadItem(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrItemNotFound
		}
		before, err := txn.StorageUsed()
		if err != nil {
			return err
		}
		err = txn.AddHolding(account, itemID)
		if err != nil {
			return err
		}
		after, err := txn.StorageUsed()
		if err != nil {
			return err
		}
		err = m.settleDeposit(txn, call, int64(after)-int64(before), decimal.Zero)
		if err != nil {
			return err
		}
		meta = m.asTokenMetadata(item)
		evt = &TokenEvent{
			Type:      EventTypeMint,
			HoldingID: EncodeHoldingID(account, itemID),
			Account:   account,
			CreatedAt: m.clock.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.sink.Notify(ctx, evt)
	return meta, nil
}

// Burn removes one holding from an account. Owner only. Released storage is
// not refunded.
func (m *Marketplace) Burn(ctx context.Context, call *Call, account, itemID string) error {
	call.normalize()
	if err := m.requireOwner(call); err != nil {
		return err
	}
	if !ValidAccountID(account) {
		return ErrInvalidAccount
	}

	m.Lock()
	defer m.Unlock()

	err := m.store.Update(func(txn StateTxn) error {
		return txn.RemoveHolding(account, itemID)
	})
	if err != nil {
		return err
	}
	m.sink.Notify(ctx, &TokenEvent{
		Type:      EventTypeBurn,
		HoldingID: EncodeHoldingID(account, itemID),
		Account:   account,
		CreatedAt: m.clock.Now(),
	})
	return nil
}

// ResolveHolding projects the item behind a composite holding id into its
// read facing metadata. The holding itself is not checked, the catalog never
// deletes items.
func (m *Marketplace) ResolveHolding(holdingID string) (*TokenMetadata, error) {
	_, itemID, err := DecodeHoldingID(holdingID)
	if err != nil {
		return nil, err
	}
	item, err := m.store.ReadItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return m.asTokenMetadata(item), nil
}

func (m *Marketplace) TotalSupply() (uint64, error) {
	return m.store.CountHoldings()
}

// ListHoldings pages over whole accounts, see Store.ListHoldingsPaged for the
// granularity caveat.
func (m *Marketplace) ListHoldings(skip, limit int) ([]*Token, error) {
	skip, limit = normalizePage(skip, limit)
	holdings, err := m.store.ListHoldingsPaged(skip, limit)
	if err != nil {
		return nil, err
	}
	var tokens []*Token
	for _, h := range holdings {
		token, err := m.asToken(h)
		if err != nil {
			return nil, err
		}
		if token != nil {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// HoldingsForAccount slices one account's holdings by holding index, in
// insertion order.
func (m *Marketplace) HoldingsForAccount(account string, skip, limit int) ([]*Token, error) {
	if !ValidAccountID(account) {
		return nil, ErrInvalidAccount
	}
	skip, limit = normalizePage(skip, limit)
	ids, err := m.store.ListHoldings(account)
	if err != nil {
		return nil, err
	}
	if skip >= len(ids) {
		return nil, nil
	}
	ids = ids[skip:]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	var tokens []*Token
	for _, id := range ids {
		token, err := m.asToken(&Holding{Account: account, ItemID: id})
		if err != nil {
			return nil, err
		}
		if token != nil {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (m *Marketplace) asToken(h *Holding) (*Token, error) {
	item, err := m.store.ReadItem(h.ItemID)
	if err != nil || item == nil {
		return nil, err
	}
	return &Token{
		HoldingID: EncodeHoldingID(h.Account, h.ItemID),
		Account:   h.Account,
		Metadata:  m.asTokenMetadata(item),
	}, nil
}

func (m *Marketplace) asTokenMetadata(item *Item) *TokenMetadata {
	return &TokenMetadata{
		Title:       item.Name,
		Description: item.Description,
		Media:       fmt.Sprintf("%s/%s/media", m.conf.MediaKind, item.ItemID),
		Extra:       item.Extra,
	}
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return skip, limit
}
