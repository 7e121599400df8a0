package ledger

import (
	"context"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
)

type LedgerService interface {
	// Transfer moves amount from the debit to the credit account and appends
	// the transaction as one atomic unit.
	Transfer(ctx context.Context, req TransferRequest) (Transaction, error)

	// BalanceOf returns the current balance of an account.
	BalanceOf(ctx context.Context, accountID string) (int64, error)

	GetAccount(ctx context.Context, accountID string) (Account, error)

	// Query lists transactions, newest first unless SortOrder is "asc".
	Query(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	// Reverse appends an offsetting transaction for an earlier one.
	Reverse(ctx context.Context, req ReverseRequest) (Transaction, error)

	// ScopedQuery is Query restricted to what the actor may see.
	ScopedQuery(ctx context.Context, actor scope.Actor, filter TransactionFilter) ([]TransactionResponse, error)

	// ScopedBalance is a balance lookup restricted to what the actor may see.
	ScopedBalance(ctx context.Context, actor scope.Actor, accountID string) (BalanceResponse, error)
}
