package market

import (
	"github.com/shopspring/decimal"
)

// refunds at or below one smallest unit are kept, a transfer of negligible
// value costs more than it returns
var minimumRefund = decimal.NewFromInt(1)

// settleDeposit reconciles the attached deposit against the storage rent of
// the just completed mutation. alreadySpent is whatever the call committed
// elsewhere, for buy the price forwarded to the creator, and is subtracted
// before the surplus is computed so rent is never taken out of earmarked
// funds. Storage released by a mutation is never refunded, negative deltas
// cost nothing.
func (m *Marketplace) settleDeposit(txn StateTxn, call *Call, bytesDelta int64, alreadySpent decimal.Decimal) error {
	if bytesDelta < 0 {
		bytesDelta = 0
	}
	required := m.byteCost.Mul(decimal.NewFromInt(bytesDelta))
	payable := call.Deposit.Sub(alreadySpent)
	if required.Cmp(payable) > 0 {
		return &InsufficientDepositError{Required: required}
	}
	refund := payable.Sub(required)
	if refund.Cmp(minimumRefund) <= 0 {
		return nil
	}
	return txn.WriteTransfer(&Transfer{
		TraceID:   deriveTraceID(call.TraceID, "refund"),
		Opponent:  call.Caller,
		Amount:    refund,
		Memo:      "refund",
		State:     TransferStateInitial,
		UpdatedAt: m.clock.Now(),
	})
}
