package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/database"
	"github.com/google/uuid"
)

type LedgerServiceImpl struct {
	transactor   database.Transactor
	ledgerRepo   ledger.LedgerRepository
	employeeRepo employee.EmployeeRepository
	logger       *slog.Logger
}

func NewLedgerService(
	transactor database.Transactor,
	ledgerRepo ledger.LedgerRepository,
	employeeRepo employee.EmployeeRepository,
	logger *slog.Logger,
) ledger.LedgerService {
	return &LedgerServiceImpl{
		transactor:   transactor,
		ledgerRepo:   ledgerRepo,
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ledger.TransferRequest) (ledger.Transaction, error) {
	if err := req.Validate(); err != nil {
		return ledger.Transaction{}, err
	}

	var created ledger.Transaction
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		debit, credit, err := s.lockPair(ctx, req.DebitAccountID, req.CreditAccountID)
		if err != nil {
			return err
		}

		if req.Amount > debit.Available() {
			return ledger.ErrInsufficientFunds
		}

		if _, err := s.ledgerRepo.AdjustBalance(ctx, debit.ID, -req.Amount); err != nil {
			return fmt.Errorf("failed to debit account: %w", err)
		}
		if _, err := s.ledgerRepo.AdjustBalance(ctx, credit.ID, req.Amount); err != nil {
			return fmt.Errorf("failed to credit account: %w", err)
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate transaction id: %w", err)
		}

		created, err = s.ledgerRepo.AppendTransaction(ctx, ledger.Transaction{
			ID:              id.String(),
			DebitAccountID:  debit.ID,
			CreditAccountID: credit.ID,
			Amount:          req.Amount,
			Type:            req.Type,
			Category:        req.Category,
			PayrollBatchID:  req.Metadata.BatchID,
			PayrollItemID:   req.Metadata.ItemID,
			ReversalOf:      req.Metadata.ReversalOf,
			Status:          ledger.TransactionStatusCompleted,
			Description:     req.Metadata.Description,
			ProcessedAt:     time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to append transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return ledger.Transaction{}, err
	}

	s.logger.Debug("ledger transfer committed",
		slog.String("transaction_id", created.ID),
		slog.String("type", string(created.Type)),
		slog.Int64("amount", created.Amount),
	)
	return created, nil
}

// lockPair locks both accounts in ascending ID order so concurrent transfers
// between the same accounts cannot deadlock.
func (s *LedgerServiceImpl) lockPair(ctx context.Context, debitID, creditID string) (debit, credit ledger.Account, err error) {
	first, second := debitID, creditID
	if second < first {
		first, second = second, first
	}

	a, err := s.ledgerRepo.GetAccountForUpdate(ctx, first)
	if err != nil {
		return debit, credit, err
	}
	b, err := s.ledgerRepo.GetAccountForUpdate(ctx, second)
	if err != nil {
		return debit, credit, err
	}

	if a.ID == debitID {
		return a, b, nil
	}
	return b, a, nil
}

func (s *LedgerServiceImpl) BalanceOf(ctx context.Context, accountID string) (int64, error) {
	account, err := s.ledgerRepo.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.CurrentBalance, nil
}

func (s *LedgerServiceImpl) GetAccount(ctx context.Context, accountID string) (ledger.Account, error) {
	return s.ledgerRepo.GetAccount(ctx, accountID)
}

func (s *LedgerServiceImpl) Query(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	txs, err := s.ledgerRepo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerServiceImpl) Reverse(ctx context.Context, req ledger.ReverseRequest) (ledger.Transaction, error) {
	if err := req.Validate(); err != nil {
		return ledger.Transaction{}, err
	}

	var reversal ledger.Transaction
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		original, err := s.ledgerRepo.GetTransaction(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if original.Type == ledger.TransactionTypeReversal {
			return ledger.ErrCannotReverseReversal
		}

		reversed, err := s.ledgerRepo.HasReversal(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("failed to check reversal: %w", err)
		}
		if reversed {
			return ledger.ErrAlreadyReversed
		}

		reason := req.Reason
		reversal, err = s.Transfer(ctx, ledger.TransferRequest{
			DebitAccountID:  original.CreditAccountID,
			CreditAccountID: original.DebitAccountID,
			Amount:          original.Amount,
			Type:            ledger.TransactionTypeReversal,
			Category:        original.Category,
			Metadata: ledger.TransferMetadata{
				BatchID:     original.PayrollBatchID,
				ItemID:      original.PayrollItemID,
				ReversalOf:  &original.ID,
				Description: &reason,
			},
		})
		return err
	})
	if err != nil {
		return ledger.Transaction{}, err
	}

	s.logger.Info("ledger transaction reversed",
		slog.String("transaction_id", req.TransactionID),
		slog.String("reversal_id", reversal.ID),
	)
	return reversal, nil
}

func (s *LedgerServiceImpl) ScopedQuery(ctx context.Context, actor scope.Actor, filter ledger.TransactionFilter) ([]ledger.TransactionResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	sc := scope.Resolve(actor)
	if filter.CompanyID != nil {
		sc = sc.WithCompany(*filter.CompanyID)
	}
	filter.CompanyID = sc.CompanyFilter()

	// The company filter is exact for every role but employee, whose view
	// is narrower than the company; page in Go after filtering then.
	offset, limit := filter.Offset, filter.Limit
	exact := actor.Role != user.RoleEmployee
	if !exact {
		filter.Offset, filter.Limit = 0, 0
	}

	txs, err := s.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	subjects, err := s.resolveSubjects(ctx, accountIDsOf(txs))
	if err != nil {
		return nil, err
	}

	visible := make([]ledger.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		if sc.AllowsAny(subjects[tx.DebitAccountID], subjects[tx.CreditAccountID]) {
			visible = append(visible, ledger.ToTransactionResponse(tx))
		}
	}

	if !exact {
		visible = page(visible, offset, limit)
	}
	return visible, nil
}

func (s *LedgerServiceImpl) ScopedBalance(ctx context.Context, actor scope.Actor, accountID string) (ledger.BalanceResponse, error) {
	if err := actor.Validate(); err != nil {
		return ledger.BalanceResponse{}, err
	}

	account, err := s.ledgerRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.BalanceResponse{}, err
		}
		return ledger.BalanceResponse{}, fmt.Errorf("failed to get account: %w", err)
	}

	subjects, err := s.resolveSubjects(ctx, []string{account.ID})
	if err != nil {
		return ledger.BalanceResponse{}, err
	}
	if !scope.Resolve(actor).Allows(subjects[account.ID]) {
		return ledger.BalanceResponse{}, scope.ErrForbidden
	}

	return ledger.ToBalanceResponse(account), nil
}

func page[T any](items []T, offset, limit int) []T {
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
