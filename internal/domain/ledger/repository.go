package ledger

import "context"

// LedgerRepository persists accounts and the append-only transaction log.
// Transactions are never updated or deleted.
type LedgerRepository interface {
	// Accounts
	CreateAccount(ctx context.Context, account Account) (Account, error)
	GetAccount(ctx context.Context, id string) (Account, error)
	// GetAccountForUpdate locks the account row until the surrounding
	// transaction ends. It must be called inside a transaction.
	GetAccountForUpdate(ctx context.Context, id string) (Account, error)
	GetAccountsByIDs(ctx context.Context, ids []string) ([]Account, error)
	AdjustBalance(ctx context.Context, id string, delta int64) (Account, error)

	// Transactions
	AppendTransaction(ctx context.Context, tx Transaction) (Transaction, error)
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	HasReversal(ctx context.Context, transactionID string) (bool, error)
}
