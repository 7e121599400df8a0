package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/events"
)

func (s *PayrollServiceImpl) CheckFunds(ctx context.Context, actor scope.Actor, batchID string) (payroll.FundsCheck, error) {
	batch, err := s.authorizedBatch(ctx, actor, batchID)
	if err != nil {
		return payroll.FundsCheck{}, err
	}
	return s.checkFunds(ctx, batch)
}

func (s *PayrollServiceImpl) checkFunds(ctx context.Context, batch payroll.PayrollBatch) (payroll.FundsCheck, error) {
	balance, err := s.ledgerService.BalanceOf(ctx, batch.FundingAccountID)
	if err != nil {
		return payroll.FundsCheck{}, fmt.Errorf("failed to read funding balance: %w", err)
	}
	return payroll.CheckFunds(batch.TotalAmount, batch.ExecutedAmount, balance, s.cfg.TopUpStep), nil
}

func (s *PayrollServiceImpl) Execute(ctx context.Context, actor scope.Actor, batchID string) (payroll.ExecuteResult, error) {
	batch, err := s.authorizedBatch(ctx, actor, batchID)
	if err != nil {
		return payroll.ExecuteResult{}, err
	}

	check, err := s.checkFunds(ctx, batch)
	if err != nil {
		return payroll.ExecuteResult{}, err
	}
	if !check.Sufficient {
		s.logger.Info("payroll execution blocked by insufficient funds",
			slog.String("batch_id", batch.ID),
			slog.Int64("shortfall", check.Shortfall),
			slog.Int64("suggested_top_up", check.SuggestedTopUp),
		)
		return payroll.ExecuteResult{Funds: check}, nil
	}

	result, err := s.process(ctx, batch.ID)
	if err != nil {
		return payroll.ExecuteResult{}, err
	}
	return payroll.ExecuteResult{Funds: check, Process: &result}, nil
}

// TopUp credits the funding account of a batch from the configured external
// source, then re-checks the gate once and resumes processing if it passes.
func (s *PayrollServiceImpl) TopUp(ctx context.Context, actor scope.Actor, req payroll.TopUpRequest) (payroll.TopUpResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.TopUpResult{}, err
	}

	batch, err := s.authorizedBatch(ctx, actor, req.BatchID)
	if err != nil {
		return payroll.TopUpResult{}, err
	}

	check, err := s.checkFunds(ctx, batch)
	if err != nil {
		return payroll.TopUpResult{}, err
	}
	if req.Amount < check.Shortfall {
		return payroll.TopUpResult{}, fmt.Errorf("%w: shortfall is %d", payroll.ErrTopUpBelowShortfall, check.Shortfall)
	}
	if s.cfg.MaxTopUp > 0 && req.Amount > s.cfg.MaxTopUp {
		return payroll.TopUpResult{}, fmt.Errorf("%w: maximum is %d", payroll.ErrTopUpExceedsLimit, s.cfg.MaxTopUp)
	}
	if s.cfg.FundingSourceAccountID == "" {
		return payroll.TopUpResult{}, payroll.ErrFundingSourceMissing
	}

	description := fmt.Sprintf("Top-up for payroll batch %s", batch.PayrollMonth)
	tx, err := s.ledgerService.Transfer(ctx, ledger.TransferRequest{
		DebitAccountID:  s.cfg.FundingSourceAccountID,
		CreditAccountID: batch.FundingAccountID,
		Amount:          req.Amount,
		Type:            ledger.TransactionTypeTopUp,
		Category:        ledger.CategorySystem,
		Metadata: ledger.TransferMetadata{
			BatchID:     &batch.ID,
			Description: &description,
		},
	})
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) || errors.Is(err, ledger.ErrInsufficientFunds) {
			return payroll.TopUpResult{}, err
		}
		return payroll.TopUpResult{}, fmt.Errorf("failed to top up: %w", err)
	}

	s.logger.Info("funding account topped up",
		slog.String("batch_id", batch.ID),
		slog.String("account_id", batch.FundingAccountID),
		slog.String("transaction_id", tx.ID),
		slog.Int64("amount", tx.Amount),
	)
	s.publisher.Publish(events.New(events.TopUp, batch.CompanyID, ledger.ToTransactionResponse(tx)))

	result := payroll.TopUpResult{Transaction: ledger.ToTransactionResponse(tx)}

	// Re-read the batch: a concurrent pass may have moved it on.
	batch, err = s.payrollRepo.GetBatchByID(ctx, batch.ID)
	if err != nil {
		return payroll.TopUpResult{}, fmt.Errorf("failed to get batch: %w", err)
	}
	result.Funds, err = s.checkFunds(ctx, batch)
	if err != nil {
		return payroll.TopUpResult{}, err
	}

	if result.Funds.Sufficient && batch.Remaining() > 0 {
		processed, err := s.process(ctx, batch.ID)
		if err != nil {
			return payroll.TopUpResult{}, err
		}
		result.Process = &processed
	}

	return result, nil
}
