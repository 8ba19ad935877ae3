package market

import "time"

const (
	EventTypeMint = "mint"
	EventTypeBurn = "burn"
)

type TokenEvent struct {
	Type      string    `json:"type"`
	HoldingID string    `json:"holding_id"`
	Account   string    `json:"account"`
	CreatedAt time.Time `json:"created_at"`
}
