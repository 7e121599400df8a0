package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
)

type ledgerRepositoryImpl struct {
	*Store
}

func NewLedgerRepository(store *Store) ledger.LedgerRepository {
	return &ledgerRepositoryImpl{Store: store}
}

func (r *ledgerRepositoryImpl) CreateAccount(ctx context.Context, account ledger.Account) (ledger.Account, error) {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	err := r.write(ctx, func() error {
		r.accounts[account.ID] = account
		return nil
	})
	return account, err
}

func (r *ledgerRepositoryImpl) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	var account ledger.Account
	err := r.read(func() error {
		a, ok := r.accounts[id]
		if !ok {
			return ledger.ErrAccountNotFound
		}
		account = a
		return nil
	})
	return account, err
}

// GetAccountForUpdate needs no row lock: the caller holds the store's
// transaction mutex.
func (r *ledgerRepositoryImpl) GetAccountForUpdate(ctx context.Context, id string) (ledger.Account, error) {
	return r.GetAccount(ctx, id)
}

func (r *ledgerRepositoryImpl) GetAccountsByIDs(ctx context.Context, ids []string) ([]ledger.Account, error) {
	var accounts []ledger.Account
	err := r.read(func() error {
		for _, id := range ids {
			if a, ok := r.accounts[id]; ok {
				accounts = append(accounts, a)
			}
		}
		return nil
	})
	return accounts, err
}

func (r *ledgerRepositoryImpl) AdjustBalance(ctx context.Context, id string, delta int64) (ledger.Account, error) {
	var account ledger.Account
	err := r.write(ctx, func() error {
		a, ok := r.accounts[id]
		if !ok {
			return ledger.ErrAccountNotFound
		}
		if a.CurrentBalance+delta < -a.OverdraftLimit {
			return ledger.ErrInsufficientFunds
		}
		a.CurrentBalance += delta
		a.UpdatedAt = time.Now()
		r.accounts[id] = a
		account = a
		return nil
	})
	return account, err
}

func (r *ledgerRepositoryImpl) AppendTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	err := r.write(ctx, func() error {
		if _, ok := r.accounts[tx.DebitAccountID]; !ok {
			return ledger.ErrAccountNotFound
		}
		if _, ok := r.accounts[tx.CreditAccountID]; !ok {
			return ledger.ErrAccountNotFound
		}
		r.transactions = append(r.transactions, tx)
		return nil
	})
	return tx, err
}

func (r *ledgerRepositoryImpl) GetTransaction(ctx context.Context, id string) (ledger.Transaction, error) {
	var tx ledger.Transaction
	err := r.read(func() error {
		for _, t := range r.transactions {
			if t.ID == id {
				tx = t
				return nil
			}
		}
		return ledger.ErrTransactionNotFound
	})
	return tx, err
}

func (r *ledgerRepositoryImpl) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	var result []ledger.Transaction
	err := r.read(func() error {
		for _, tx := range r.transactions {
			if !filter.Matches(tx) {
				continue
			}
			if filter.CompanyID != nil && !r.touchesCompany(tx, *filter.CompanyID) {
				continue
			}
			result = append(result, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Appended order breaks ties between equal timestamps.
	if filter.SortOrder == "asc" {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].ProcessedAt.Before(result[j].ProcessedAt)
		})
	} else {
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].ProcessedAt.After(result[j].ProcessedAt)
		})
	}

	return paginate(result, filter.Offset, filter.Limit), nil
}

func (r *ledgerRepositoryImpl) touchesCompany(tx ledger.Transaction, companyID string) bool {
	return r.accounts[tx.DebitAccountID].CompanyID == companyID || r.accounts[tx.CreditAccountID].CompanyID == companyID
}

func (r *ledgerRepositoryImpl) HasReversal(ctx context.Context, transactionID string) (bool, error) {
	var found bool
	err := r.read(func() error {
		for _, tx := range r.transactions {
			if tx.ReversalOf != nil && *tx.ReversalOf == transactionID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
