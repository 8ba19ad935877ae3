package market

import (
	"time"

	"github.com/fox-one/mixin-sdk-go"
	"github.com/shopspring/decimal"
)

const (
	TransferStateInitial = 10
	TransferStateDone    = 11
)

// Transfer is a payment intent recorded atomically with the call that owes
// it. The trace id is derived from the call so a resubmitted call can not
// double spend.
type Transfer struct {
	TraceID   string
	Opponent  string
	Amount    decimal.Decimal
	Memo      string
	State     int
	UpdatedAt time.Time
}

func deriveTraceID(callID, tag string) string {
	return mixin.UniqueConversationID(callID, tag)
}
