package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch(companyID, fundingID string, total int64) payroll.PayrollBatch {
	id, _ := uuid.NewV7()
	return payroll.PayrollBatch{
		ID:               id.String(),
		CompanyID:        companyID,
		FundingAccountID: fundingID,
		PayrollMonth:     "2025-01",
		BaseSalary:       25000,
		Status:           payroll.BatchStatusPending,
		TotalAmount:      total,
	}
}

func TestPayrollRepository_Batches(t *testing.T) {
	setup := NewTestDatabase(t)
	ledgerRepo := postgresql.NewLedgerRepository(setup.DB)
	repo := postgresql.NewPayrollRepository(setup.DB)
	ctx := context.Background()

	companyID := uuid.NewString()
	funding := createAccount(t, ledgerRepo, ledger.OwnerTypeCompany, companyID, 0)

	batch, err := repo.CreateBatch(ctx, newBatch(companyID, funding.ID, 1000))
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchStatusPending, batch.Status)

	t.Run("one in-progress batch per company", func(t *testing.T) {
		_, err := repo.CreateBatch(ctx, newBatch(companyID, funding.ID, 500))
		assert.ErrorIs(t, err, payroll.ErrBatchAlreadyInProgress)

		inProgress, err := repo.GetInProgressBatch(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, batch.ID, inProgress.ID)
	})

	t.Run("executed amount is capped by total", func(t *testing.T) {
		updated, err := repo.AddExecutedAmount(ctx, batch.ID, 600)
		require.NoError(t, err)
		assert.Equal(t, int64(600), updated.ExecutedAmount)
		assert.Equal(t, int64(400), updated.Remaining())

		_, err = repo.AddExecutedAmount(ctx, batch.ID, 401)
		assert.ErrorIs(t, err, payroll.ErrExecutedExceedsTotal)

		_, err = repo.AddExecutedAmount(ctx, uuid.NewString(), 1)
		assert.ErrorIs(t, err, payroll.ErrBatchNotFound)
	})

	t.Run("finished batch frees the company", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.UpdateBatchStatus(ctx, batch.ID, payroll.BatchStatusPartiallyCompleted, &now))

		_, err := repo.GetInProgressBatch(ctx, companyID)
		assert.ErrorIs(t, err, payroll.ErrBatchNotFound)

		next, err := repo.CreateBatch(ctx, newBatch(companyID, funding.ID, 0))
		require.NoError(t, err)

		err = repo.UpdateBatchStatus(ctx, batch.ID, payroll.BatchStatusProcessing, nil)
		assert.ErrorIs(t, err, payroll.ErrBatchAlreadyInProgress)

		last, err := repo.GetLastBatch(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, next.ID, last.ID)
	})

	t.Run("list with count", func(t *testing.T) {
		status := string(payroll.BatchStatusPartiallyCompleted)
		batches, total, err := repo.ListBatches(ctx, payroll.BatchFilter{CompanyID: &companyID, Status: &status, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, batches, 1)
		assert.Equal(t, batch.ID, batches[0].ID)
		assert.NotNil(t, batches[0].ProcessedAt)

		batches, total, err = repo.ListBatches(ctx, payroll.BatchFilter{CompanyID: &companyID, Page: 2, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, batches, 1)
		assert.Equal(t, batch.ID, batches[0].ID)
	})
}

func TestPayrollRepository_Items(t *testing.T) {
	setup := NewTestDatabase(t)
	ledgerRepo := postgresql.NewLedgerRepository(setup.DB)
	employeeRepo := postgresql.NewEmployeeRepository(setup.DB)
	repo := postgresql.NewPayrollRepository(setup.DB)
	ctx := context.Background()

	companyID := uuid.NewString()
	funding := createAccount(t, ledgerRepo, ledger.OwnerTypeCompany, companyID, 0)
	account := createAccount(t, ledgerRepo, ledger.OwnerTypeEmployee, companyID, 0)

	emp, err := employeeRepo.Save(ctx, employee.Employee{
		CompanyID:    companyID,
		EmployeeCode: "acme-0001",
		FullName:     "Ada Lovelace",
		GradeRank:    6,
		AccountID:    account.ID,
	})
	require.NoError(t, err)
	assert.True(t, emp.IsActive())

	_, err = employeeRepo.Save(ctx, employee.Employee{
		CompanyID: companyID, EmployeeCode: "acme-0001", FullName: "Dup", GradeRank: 6,
		AccountID: createAccount(t, ledgerRepo, ledger.OwnerTypeEmployee, companyID, 0).ID,
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)

	batch, err := repo.CreateBatch(ctx, newBatch(companyID, funding.ID, 33750))
	require.NoError(t, err)

	itemID, _ := uuid.NewV7()
	require.NoError(t, repo.CreateItems(ctx, []payroll.PayrollItem{{
		ID: itemID.String(), BatchID: batch.ID, Seq: 1, EmployeeID: emp.ID, EmployeeAccountID: emp.AccountID,
		GradeRank: 6, BasicSalary: 25000, HRA: 5000, Medical: 3750, GrossSalary: 33750, NetAmount: 33750,
		Status: payroll.ItemStatusPending,
	}}))

	require.NoError(t, repo.MarkItemFailed(ctx, itemID.String(), "insufficient funds"))
	item, err := repo.GetItemByID(ctx, itemID.String())
	require.NoError(t, err)
	assert.Equal(t, payroll.ItemStatusFailed, item.Status)
	require.NotNil(t, item.FailureReason)
	assert.Equal(t, 1, item.Attempts)

	tx := appendTransfer(t, ledgerRepo, funding.ID, account.ID, 33750)
	require.NoError(t, repo.MarkItemPaid(ctx, itemID.String(), &tx.ID, time.Now().UTC()))

	items, err := repo.GetItemsByBatchID(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, payroll.ItemStatusPaid, items[0].Status)
	assert.Nil(t, items[0].FailureReason)
	assert.Equal(t, tx.ID, *items[0].TransactionID)
	assert.Equal(t, 2, items[0].Attempts)

	byAccount, err := employeeRepo.GetByAccountIDs(ctx, []string{account.ID, funding.ID})
	require.NoError(t, err)
	require.Len(t, byAccount, 1)
	assert.Equal(t, emp.ID, byAccount[0].ID)

	assert.ErrorIs(t, repo.MarkItemPaid(ctx, uuid.NewString(), nil, time.Now()), payroll.ErrItemNotFound)
}
