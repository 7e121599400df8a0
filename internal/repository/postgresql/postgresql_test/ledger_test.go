package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAccount(t *testing.T, repo ledger.LedgerRepository, ownerType ledger.OwnerType, companyID string, balance int64) ledger.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), ledger.Account{
		OwnerType:      ownerType,
		OwnerID:        uuid.NewString(),
		CompanyID:      companyID,
		CurrentBalance: balance,
	})
	require.NoError(t, err)
	return a
}

func appendTransfer(t *testing.T, repo ledger.LedgerRepository, from, to string, amount int64) ledger.Transaction {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	tx, err := repo.AppendTransaction(context.Background(), ledger.Transaction{
		ID:              id.String(),
		DebitAccountID:  from,
		CreditAccountID: to,
		Amount:          amount,
		Type:            ledger.TransactionTypeAdjustment,
		Category:        ledger.CategorySystem,
		Status:          ledger.TransactionStatusCompleted,
		ProcessedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)
	return tx
}

func TestLedgerRepository_Accounts(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewLedgerRepository(setup.DB)
	ctx := context.Background()

	companyID := uuid.NewString()
	acc := createAccount(t, repo, ledger.OwnerTypeCompany, companyID, 1000)

	got, err := repo.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, companyID, got.CompanyID)
	assert.Equal(t, int64(1000), got.CurrentBalance)

	t.Run("adjust within balance", func(t *testing.T) {
		updated, err := repo.AdjustBalance(ctx, acc.ID, -400)
		require.NoError(t, err)
		assert.Equal(t, int64(600), updated.CurrentBalance)
	})

	t.Run("overdraft floor is enforced", func(t *testing.T) {
		_, err := repo.AdjustBalance(ctx, acc.ID, -601)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := repo.GetAccount(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
		_, err = repo.GetAccount(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
		_, err = repo.AdjustBalance(ctx, uuid.NewString(), 10)
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	})

	t.Run("external account has no company", func(t *testing.T) {
		ext := createAccount(t, repo, ledger.OwnerTypeExternal, "", 0)
		assert.Empty(t, ext.CompanyID)

		accounts, err := repo.GetAccountsByIDs(ctx, []string{acc.ID, ext.ID, "bogus"})
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}

func TestLedgerRepository_Transactions(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewLedgerRepository(setup.DB)
	ctx := context.Background()

	acme, globex := uuid.NewString(), uuid.NewString()
	funding := createAccount(t, repo, ledger.OwnerTypeCompany, acme, 0)
	worker := createAccount(t, repo, ledger.OwnerTypeEmployee, acme, 0)
	other := createAccount(t, repo, ledger.OwnerTypeCompany, globex, 0)

	first := appendTransfer(t, repo, funding.ID, worker.ID, 100)
	second := appendTransfer(t, repo, funding.ID, worker.ID, 200)
	appendTransfer(t, repo, other.ID, funding.ID, 300)

	t.Run("newest first with account filter", func(t *testing.T) {
		txs, err := repo.ListTransactions(ctx, ledger.TransactionFilter{AccountID: &worker.ID})
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, second.ID, txs[0].ID)
		assert.Equal(t, first.ID, txs[1].ID)
	})

	t.Run("company filter matches either side", func(t *testing.T) {
		txs, err := repo.ListTransactions(ctx, ledger.TransactionFilter{CompanyID: &globex})
		require.NoError(t, err)
		assert.Len(t, txs, 1)

		txs, err = repo.ListTransactions(ctx, ledger.TransactionFilter{CompanyID: &acme, SortOrder: "asc", Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, second.ID, txs[0].ID)
	})

	t.Run("single reversal per transaction", func(t *testing.T) {
		has, err := repo.HasReversal(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, has)

		reversal := func() error {
			id, _ := uuid.NewV7()
			_, err := repo.AppendTransaction(ctx, ledger.Transaction{
				ID: id.String(), DebitAccountID: worker.ID, CreditAccountID: funding.ID, Amount: 100,
				Type: ledger.TransactionTypeReversal, Category: ledger.CategorySystem,
				ReversalOf: &first.ID, Status: ledger.TransactionStatusCompleted, ProcessedAt: time.Now().UTC(),
			})
			return err
		}
		require.NoError(t, reversal())
		assert.ErrorIs(t, reversal(), ledger.ErrAlreadyReversed)

		has, err = repo.HasReversal(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("log is append-only", func(t *testing.T) {
		_, err := setup.DB.Exec(ctx, `UPDATE ledger_transactions SET amount = 1 WHERE id = $1`, first.ID)
		assert.Error(t, err)
		_, err = setup.DB.Exec(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, first.ID)
		assert.Error(t, err)
	})

	t.Run("unknown account rejected", func(t *testing.T) {
		id, _ := uuid.NewV7()
		_, err := repo.AppendTransaction(ctx, ledger.Transaction{
			ID: id.String(), DebitAccountID: funding.ID, CreditAccountID: uuid.NewString(), Amount: 1,
			Type: ledger.TransactionTypeAdjustment, Category: ledger.CategorySystem,
			Status: ledger.TransactionStatusCompleted, ProcessedAt: time.Now().UTC(),
		})
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	})
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewLedgerRepository(setup.DB)
	transactor := postgresql.NewTransactor(setup.DB)
	ctx := context.Background()

	acc := createAccount(t, repo, ledger.OwnerTypeCompany, uuid.NewString(), 500)
	boom := errors.New("boom")

	err := transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.AdjustBalance(ctx, acc.ID, -200); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := repo.AdjustBalance(ctx, acc.ID, -100); err != nil {
				return err
			}
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.CurrentBalance)
}
