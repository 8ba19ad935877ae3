package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// error base, so the classes below stay comparable values
type GenericError string

type NotFoundError GenericError
type InvalidError GenericError
type AccessError GenericError
type UnsupportedError GenericError

var (
	ErrItemNotFound         = NotFoundError("item not found")
	ErrNoHoldings           = NotFoundError("account has no holdings")
	ErrTokenNotOwned        = NotFoundError("token is not owned by the account")
	ErrMalformedHoldingID   = InvalidError("malformed holding id")
	ErrInvalidAccount       = InvalidError("invalid account id")
	ErrInvalidItemID        = InvalidError("invalid item id")
	ErrNotWhitelisted       = AccessError("creator is not whitelisted")
	ErrUnauthorized         = AccessError("unauthorized")
	ErrUnsupportedOperation = UnsupportedError("soulbound tokens cannot be transferred")
)

func (e GenericError) Error() string     { return string(e) }
func (e NotFoundError) Error() string    { return string(e) }
func (e InvalidError) Error() string     { return string(e) }
func (e AccessError) Error() string      { return string(e) }
func (e UnsupportedError) Error() string { return string(e) }

// InsufficientDepositError carries the amount the caller must attach so a
// client can resubmit with a corrected payment.
type InsufficientDepositError struct {
	Required decimal.Decimal
}

func (e *InsufficientDepositError) Error() string {
	return fmt.Sprintf("insufficient deposit, must attach %s", e.Required)
}

func IsErrNotFound(e error) bool    { _, ok := e.(NotFoundError); return ok }
func IsErrInvalid(e error) bool     { _, ok := e.(InvalidError); return ok }
func IsErrAccess(e error) bool      { _, ok := e.(AccessError); return ok }
func IsErrUnsupported(e error) bool { _, ok := e.(UnsupportedError); return ok }

func IsErrInsufficientDeposit(e error) bool {
	_, ok := e.(*InsufficientDepositError)
	return ok
}
