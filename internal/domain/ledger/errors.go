package ledger

import "errors"

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrAccountNotFound       = errors.New("account not found")
	ErrSameAccount           = errors.New("debit and credit account must differ")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrAlreadyReversed       = errors.New("transaction already reversed")
	ErrCannotReverseReversal = errors.New("a reversal cannot itself be reversed")
)
