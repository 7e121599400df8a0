package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `id, owner_type, owner_id, company_id, current_balance, overdraft_limit, created_at, updated_at`

const transactionColumns = `t.id, t.debit_account_id, t.credit_account_id, t.amount, t.type, t.category,
	t.payroll_batch_id, t.payroll_item_id, t.reversal_of, t.status, t.description, t.processed_at`

type ledgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) ledger.LedgerRepository {
	return &ledgerRepository{db: db}
}

// ========== ACCOUNTS ==========

func (r *ledgerRepository) CreateAccount(ctx context.Context, account ledger.Account) (ledger.Account, error) {
	q := GetQuerier(ctx, r.db)

	if account.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return ledger.Account{}, fmt.Errorf("failed to generate account id: %w", err)
		}
		account.ID = id.String()
	}

	query := `
		INSERT INTO ledger_accounts (id, owner_type, owner_id, company_id, current_balance, overdraft_limit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + accountColumns

	created, err := scanAccount(q.QueryRow(ctx, query,
		account.ID, account.OwnerType, account.OwnerID, nullIfEmpty(account.CompanyID),
		account.CurrentBalance, account.OverdraftLimit,
	))
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return created, nil
}

func (r *ledgerRepository) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE id = $1`, id)
}

func (r *ledgerRepository) GetAccountForUpdate(ctx context.Context, id string) (ledger.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *ledgerRepository) getAccount(ctx context.Context, query, id string) (ledger.Account, error) {
	if uuid.Validate(id) != nil {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}

	q := GetQuerier(ctx, r.db)
	account, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrAccountNotFound
		}
		return ledger.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *ledgerRepository) GetAccountsByIDs(ctx context.Context, ids []string) ([]ledger.Account, error) {
	q := GetQuerier(ctx, r.db)

	valid := validUUIDs(ids)
	if len(valid) == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE id = ANY($1)`, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *ledgerRepository) AdjustBalance(ctx context.Context, id string, delta int64) (ledger.Account, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE ledger_accounts
		SET current_balance = current_balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(q.QueryRow(ctx, query, id, delta))
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ledger.Account{}, ledger.ErrAccountNotFound
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "chk_ledger_accounts_overdraft":
			return ledger.Account{}, ledger.ErrInsufficientFunds
		}
		return ledger.Account{}, fmt.Errorf("failed to adjust balance: %w", err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var (
		a         ledger.Account
		companyID *string
	)
	err := row.Scan(&a.ID, &a.OwnerType, &a.OwnerID, &companyID, &a.CurrentBalance, &a.OverdraftLimit, &a.CreatedAt, &a.UpdatedAt)
	if companyID != nil {
		a.CompanyID = *companyID
	}
	return a, err
}

// ========== TRANSACTIONS ==========

func (r *ledgerRepository) AppendTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO ledger_transactions AS t (
			id, debit_account_id, credit_account_id, amount, type, category,
			payroll_batch_id, payroll_item_id, reversal_of, status, description, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + transactionColumns

	created, err := scanTransaction(q.QueryRow(ctx, query,
		tx.ID, tx.DebitAccountID, tx.CreditAccountID, tx.Amount, tx.Type, tx.Category,
		tx.PayrollBatchID, tx.PayrollItemID, tx.ReversalOf, tx.Status, tx.Description, tx.ProcessedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == sqlStateUniqueViolation && pgErr.ConstraintName == "uk_ledger_transactions_reversal_of":
				return ledger.Transaction{}, ledger.ErrAlreadyReversed
			case pgErr.Code == sqlStateForeignKeyViolation:
				return ledger.Transaction{}, ledger.ErrAccountNotFound
			}
		}
		return ledger.Transaction{}, fmt.Errorf("failed to append transaction: %w", err)
	}
	return created, nil
}

func (r *ledgerRepository) GetTransaction(ctx context.Context, id string) (ledger.Transaction, error) {
	if uuid.Validate(id) != nil {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}

	q := GetQuerier(ctx, r.db)
	tx, err := scanTransaction(q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM ledger_transactions t WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Transaction{}, ledger.ErrTransactionNotFound
		}
		return ledger.Transaction{}, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions t WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.AccountID != nil {
		query += fmt.Sprintf(" AND (t.debit_account_id = $%d OR t.credit_account_id = $%d)", argIdx, argIdx)
		args = append(args, *filter.AccountID)
		argIdx++
	}
	if filter.CompanyID != nil {
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM ledger_accounts a
			WHERE a.id IN (t.debit_account_id, t.credit_account_id) AND a.company_id = $%d)`, argIdx)
		args = append(args, *filter.CompanyID)
		argIdx++
	}
	if filter.BatchID != nil {
		query += fmt.Sprintf(" AND t.payroll_batch_id = $%d", argIdx)
		args = append(args, *filter.BatchID)
		argIdx++
	}
	if filter.ItemID != nil {
		query += fmt.Sprintf(" AND t.payroll_item_id = $%d", argIdx)
		args = append(args, *filter.ItemID)
		argIdx++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND t.processed_at >= $%d", argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND t.processed_at <= $%d", argIdx)
		args = append(args, *filter.To)
		argIdx++
	}
	if filter.Type != nil {
		query += fmt.Sprintf(" AND t.type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}
	if filter.Category != nil {
		query += fmt.Sprintf(" AND t.category = $%d", argIdx)
		args = append(args, *filter.Category)
		argIdx++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// UUIDv7 ids order transactions committed within the same instant.
	if filter.SortOrder == "asc" {
		query += " ORDER BY t.processed_at ASC, t.id ASC"
	} else {
		query += " ORDER BY t.processed_at DESC, t.id DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *ledgerRepository) HasReversal(ctx context.Context, transactionID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledger_transactions WHERE reversal_of = $1)`, transactionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reversal: %w", err)
	}
	return exists, nil
}

func scanTransaction(row pgx.Row) (ledger.Transaction, error) {
	var tx ledger.Transaction
	err := row.Scan(
		&tx.ID, &tx.DebitAccountID, &tx.CreditAccountID, &tx.Amount, &tx.Type, &tx.Category,
		&tx.PayrollBatchID, &tx.PayrollItemID, &tx.ReversalOf, &tx.Status, &tx.Description, &tx.ProcessedAt,
	)
	return tx, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func validUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if uuid.Validate(id) == nil {
			valid = append(valid, id)
		}
	}
	return valid
}
