package ledger

import "errors"

// Operation errors. Every operation surfaces exactly one of these classes;
// nothing is retried internally and no partial state survives a failure.
var (
	// ErrUnauthorized is returned when the caller does not match the
	// principal an operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAmount is returned for non-positive or malformed
	// quantities, symbols, memos and fee rates.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when a debit exceeds the
	// owner's balance, or no balance row exists.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSupplyExceeded is returned when a mint would push current
	// supply past the symbol's maximum.
	ErrSupplyExceeded = errors.New("supply exceeded")

	// ErrAlreadyExists is returned when creating a symbol that exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNonZeroBalance is returned when closing a balance that is not
	// zero.
	ErrNonZeroBalance = errors.New("non-zero balance")

	// ErrUninitialized is returned when an operation needs the
	// configuration but init has never run.
	ErrUninitialized = errors.New("ledger not initialized")
)

// errorClass maps an error to a stable label for metrics.
func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrSupplyExceeded):
		return "supply_exceeded"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNonZeroBalance):
		return "non_zero_balance"
	case errors.Is(err, ErrUninitialized):
		return "uninitialized"
	default:
		return "internal"
	}
}
