package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemCreation is the caller supplied input for a mint. The item id is chosen
// by the creator and must be unique in the catalog, resubmitting the same id
// overwrites the previous record.
type ItemCreation struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Extra       string          `json:"extra,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// Item is a catalog record, immutable after mint. Burn removes ownership only,
// the catalog entry stays forever.
type Item struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Extra       string          `json:"extra,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Creator     string          `json:"creator"`
}

func (ic *ItemCreation) validate() error {
	if ic.ItemID == "" || strings.Contains(ic.ItemID, HoldingIDDelimiter) {
		return ErrInvalidItemID
	}
	if ic.Price.IsNegative() || !ic.Price.Equal(ic.Price.Truncate(0)) {
		return InvalidError(fmt.Sprintf("invalid price %s", ic.Price))
	}
	return nil
}

// TokenMetadata is the read facing projection of an Item. All other fields of
// the standard metadata shape are absent, there are no editions or timestamps.
type TokenMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Media       string `json:"media"`
	Extra       string `json:"extra,omitempty"`
}

// Token pairs a composite holding id with the resolved item metadata.
type Token struct {
	HoldingID string         `json:"holding_id"`
	Account   string         `json:"account"`
	Metadata  *TokenMetadata `json:"metadata"`
}
