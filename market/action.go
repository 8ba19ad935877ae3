package market

import (
	"context"
	"fmt"
)

const (
	ActionMint            = 10
	ActionBuy             = 11
	ActionBuyForUser      = 12
	ActionBurn            = 13
	ActionTransfer        = 14
	ActionTransferResolve = 15
)

// Operation is one dispatchable call against the ledger.
type Operation struct {
	Action  int           `json:"action"`
	Call    Call          `json:"call"`
	ItemID  string        `json:"item_id,omitempty"`
	Account string        `json:"account,omitempty"`
	Item    *ItemCreation `json:"item,omitempty"`
}

// Process routes an operation to the marketplace. The transfer variants are
// rejected here before any state is touched, soulbound holdings never move
// between accounts.
func (m *Marketplace) Process(ctx context.Context, op *Operation) (interface{}, error) {
	switch op.Action {
	case ActionTransfer, ActionTransferResolve:
		return nil, ErrUnsupportedOperation
	case ActionMint:
		return m.Mint(ctx, &op.Call, op.Item)
	case ActionBuy:
		return m.Buy(ctx, &op.Call, op.ItemID)
	case ActionBuyForUser:
		return m.BuyForUser(ctx, &op.Call, op.ItemID, op.Account)
	case ActionBurn:
		return nil, m.Burn(ctx, &op.Call, op.Account, op.ItemID)
	}
	return nil, InvalidError(fmt.Sprintf("invalid action %d", op.Action))
}
