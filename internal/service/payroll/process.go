package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/events"
)

const reasonInsufficientFunds = "insufficient funds in funding account"

var errItemAlreadyPaid = errors.New("payroll item already paid")

func (s *PayrollServiceImpl) Process(ctx context.Context, actor scope.Actor, batchID string) (payroll.ProcessResult, error) {
	if _, err := s.authorizedBatch(ctx, actor, batchID); err != nil {
		return payroll.ProcessResult{}, err
	}
	return s.process(ctx, batchID)
}

// process pays the unpaid items of a batch in item order, each in its own
// transaction. Items are attempted greedily: one that does not fit the funds
// left is marked FAILED and the next, possibly smaller, item is tried. A
// client disconnect does not abort a pass halfway.
func (s *PayrollServiceImpl) process(ctx context.Context, batchID string) (payroll.ProcessResult, error) {
	unlock := s.locks.Lock(batchID)
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	batch, err := s.payrollRepo.GetBatchByID(ctx, batchID)
	if err != nil {
		return payroll.ProcessResult{}, err
	}

	items, err := s.payrollRepo.GetItemsByBatchID(ctx, batchID)
	if err != nil {
		return payroll.ProcessResult{}, fmt.Errorf("failed to get batch items: %w", err)
	}

	unpaid := make([]payroll.PayrollItem, 0, len(items))
	for _, item := range items {
		if item.Status != payroll.ItemStatusPaid {
			unpaid = append(unpaid, item)
		}
	}

	paidThisRun := 0
	if len(unpaid) > 0 {
		// A finished batch being resumed stays finished: another batch of the
		// company may already be in progress.
		if batch.Status == payroll.BatchStatusPending {
			if err := s.payrollRepo.UpdateBatchStatus(ctx, batchID, payroll.BatchStatusProcessing, nil); err != nil {
				return payroll.ProcessResult{}, fmt.Errorf("failed to mark batch processing: %w", err)
			}
		}

		paidThisRun, err = s.payItems(ctx, batch, unpaid)
		if err != nil {
			return payroll.ProcessResult{}, err
		}

		items, err = s.payrollRepo.GetItemsByBatchID(ctx, batchID)
		if err != nil {
			return payroll.ProcessResult{}, fmt.Errorf("failed to get batch items: %w", err)
		}
	}

	summary := payroll.Summarize(items)
	status := summary.Status()
	if batch.Status != status || len(unpaid) > 0 {
		now := time.Now().UTC()
		if err := s.payrollRepo.UpdateBatchStatus(ctx, batchID, status, &now); err != nil {
			return payroll.ProcessResult{}, fmt.Errorf("failed to update batch status: %w", err)
		}
	}

	result := payroll.ProcessResult{
		BatchID:         batchID,
		Status:          string(status),
		SuccessCount:    summary.PaidCount,
		FailedCount:     summary.FailedCount,
		ProcessedAmount: summary.PaidAmount,
		FailedAmount:    summary.FailedAmount,
		PaidThisRun:     paidThisRun,
		Items:           payroll.ToItemResponses(items),
	}

	s.logger.Info("payroll batch processed",
		slog.String("batch_id", batchID),
		slog.String("company_id", batch.CompanyID),
		slog.String("status", result.Status),
		slog.Int("paid", result.SuccessCount),
		slog.Int("failed", result.FailedCount),
		slog.Int("paid_this_run", paidThisRun),
		slog.Int64("processed_amount", result.ProcessedAmount),
	)

	summaryEvent := result
	summaryEvent.Items = nil
	s.publisher.Publish(events.New(events.BatchProcessed, batch.CompanyID, summaryEvent))

	return result, nil
}

func (s *PayrollServiceImpl) payItems(ctx context.Context, batch payroll.PayrollBatch, items []payroll.PayrollItem) (int, error) {
	available, err := s.available(ctx, batch.FundingAccountID)
	if err != nil {
		return 0, err
	}

	paid := 0
	for _, item := range items {
		if item.NetAmount > available {
			if err := s.failItem(ctx, batch, item, reasonInsufficientFunds); err != nil {
				return paid, err
			}
			continue
		}

		err := s.payItem(ctx, batch.ID, item)
		switch {
		case err == nil:
			available -= item.NetAmount
			paid++

		case errors.Is(err, errItemAlreadyPaid):
			available, err = s.available(ctx, batch.FundingAccountID)
			if err != nil {
				return paid, err
			}

		case errors.Is(err, ledger.ErrInsufficientFunds):
			// The balance moved under us; trust the ledger, not the estimate.
			if err := s.failItem(ctx, batch, item, reasonInsufficientFunds); err != nil {
				return paid, err
			}
			available, err = s.available(ctx, batch.FundingAccountID)
			if err != nil {
				return paid, err
			}

		case errors.Is(err, ledger.ErrAccountNotFound):
			if err := s.failItem(ctx, batch, item, "employee account not found"); err != nil {
				return paid, err
			}

		default:
			return paid, fmt.Errorf("failed to pay item %s: %w", item.ID, err)
		}
	}
	return paid, nil
}

// payItem transfers one salary and records it on the item and the batch as
// one atomic unit.
func (s *PayrollServiceImpl) payItem(ctx context.Context, batchID string, item payroll.PayrollItem) error {
	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		batch, err := s.payrollRepo.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return fmt.Errorf("failed to lock batch: %w", err)
		}

		current, err := s.payrollRepo.GetItemByID(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		if current.Status == payroll.ItemStatusPaid {
			return errItemAlreadyPaid
		}

		var transactionID *string
		if current.NetAmount > 0 {
			description := fmt.Sprintf("Salary %s", batch.PayrollMonth)
			tx, err := s.ledgerService.Transfer(ctx, ledger.TransferRequest{
				DebitAccountID:  batch.FundingAccountID,
				CreditAccountID: current.EmployeeAccountID,
				Amount:          current.NetAmount,
				Type:            ledger.TransactionTypeSalaryDisbursement,
				Category:        ledger.CategoryPayroll,
				Metadata: ledger.TransferMetadata{
					BatchID:     &batch.ID,
					ItemID:      &current.ID,
					Description: &description,
				},
			})
			if err != nil {
				return err
			}
			transactionID = &tx.ID
		}

		if err := s.payrollRepo.MarkItemPaid(ctx, current.ID, transactionID, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to mark item paid: %w", err)
		}
		if _, err := s.payrollRepo.AddExecutedAmount(ctx, batch.ID, current.NetAmount); err != nil {
			return fmt.Errorf("failed to record executed amount: %w", err)
		}
		return nil
	})
}

func (s *PayrollServiceImpl) failItem(ctx context.Context, batch payroll.PayrollBatch, item payroll.PayrollItem, reason string) error {
	if err := s.payrollRepo.MarkItemFailed(ctx, item.ID, reason); err != nil {
		return fmt.Errorf("failed to mark item failed: %w", err)
	}
	s.logger.Warn("payroll item failed",
		slog.String("batch_id", batch.ID),
		slog.String("item_id", item.ID),
		slog.String("employee_id", item.EmployeeID),
		slog.Int64("amount", item.NetAmount),
		slog.String("reason", reason),
	)
	return nil
}

func (s *PayrollServiceImpl) available(ctx context.Context, accountID string) (int64, error) {
	account, err := s.ledgerService.GetAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to read funding account: %w", err)
	}
	return account.Available(), nil
}
