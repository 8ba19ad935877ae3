package market

import (
	"context"
)

// Store is the persisted state of the ledger. Reads outside a transaction see
// the last committed state.
type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	// ReadItem returns nil without error when the catalog has no such id.
	ReadItem(itemID string) (*Item, error)

	// ListHoldings returns the item ids held by one account in insertion
	// order, empty when the account has no entry.
	ListHoldings(account string) ([]string, error)

	// CountHoldings sums the holdings across all accounts.
	CountHoldings() (uint64, error)

	// ListHoldingsPaged walks accounts in index order, skipping and limiting
	// whole accounts, and expands each into its holdings. The limit bounds
	// accounts visited, not holdings returned.
	ListHoldingsPaged(skipAccounts, limitAccounts int) ([]*Holding, error)

	IsWhitelisted(account string) (bool, error)
	ListWhitelist() ([]string, error)

	// StorageUsed reports the metered byte size of the catalog and the
	// ownership index.
	StorageUsed() (uint64, error)

	// Update runs fn inside a single transaction. When fn returns an error
	// nothing it wrote is persisted.
	Update(fn func(StateTxn) error) error
}

// StateTxn is the mutation surface available inside Store.Update. Every write
// either lands with the whole transaction or not at all.
type StateTxn interface {
	ReadItem(itemID string) (*Item, error)
	WriteItem(item *Item) error

	ListHoldings(account string) ([]string, error)
	AddHolding(account, itemID string) error
	RemoveHolding(account, itemID string) error

	WriteTransfer(t *Transfer) error

	AddWhitelisted(account string) error
	RemoveWhitelisted(account string) error

	StorageUsed() (uint64, error)
}

// EventSink accepts mint and burn notifications keyed by the composite
// holding id. Delivery is fire and forget, the ledger never waits on it.
type EventSink interface {
	Notify(ctx context.Context, evt *TokenEvent)
}
