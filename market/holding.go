package market

import (
	"regexp"
	"strings"
)

// HoldingIDDelimiter joins an account with an item id into the externally
// visible id of one owned copy. Account ids can never contain it, and mint
// rejects item ids that do, so splitting on the first occurrence is exact.
const HoldingIDDelimiter = ":"

// Holding is one account's ownership relationship to one item.
type Holding struct {
	Account string `json:"account"`
	ItemID  string `json:"item_id"`
}

var accountPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// ValidAccountID checks the account syntax only, existence is the host's
// business.
func ValidAccountID(id string) bool {
	return len(id) >= 2 && len(id) <= 64 && accountPattern.MatchString(id)
}

func EncodeHoldingID(account, itemID string) string {
	return account + HoldingIDDelimiter + itemID
}

func DecodeHoldingID(holdingID string) (string, string, error) {
	parts := strings.SplitN(holdingID, HoldingIDDelimiter, 2)
	if len(parts) != 2 {
		return "", "", ErrMalformedHoldingID
	}
	if !ValidAccountID(parts[0]) {
		return "", "", ErrInvalidAccount
	}
	return parts[0], parts[1], nil
}
