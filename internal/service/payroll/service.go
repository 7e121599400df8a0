package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/master/grade"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/events"
	"github.com/google/uuid"
)

// Config holds the tunables of the funds-sufficiency gate.
type Config struct {
	TopUpStep int64
	// MaxTopUp caps a single top-up; zero means no cap.
	MaxTopUp int64
	// FundingSourceAccountID is the external account top-ups are drawn from.
	FundingSourceAccountID string
}

type PayrollServiceImpl struct {
	transactor    database.Transactor
	payrollRepo   payroll.PayrollRepository
	employeeRepo  employee.EmployeeRepository
	ledgerRepo    ledger.LedgerRepository
	ledgerService ledger.LedgerService
	publisher     events.Publisher
	logger        *slog.Logger
	cfg           Config
	locks         *keyedMutex
}

func NewPayrollService(
	transactor database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	ledgerRepo ledger.LedgerRepository,
	ledgerService ledger.LedgerService,
	publisher events.Publisher,
	logger *slog.Logger,
	cfg Config,
) payroll.PayrollService {
	if cfg.TopUpStep <= 0 {
		cfg.TopUpStep = payroll.DefaultTopUpStep
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &PayrollServiceImpl{
		transactor:    transactor,
		payrollRepo:   payrollRepo,
		employeeRepo:  employeeRepo,
		ledgerRepo:    ledgerRepo,
		ledgerService: ledgerService,
		publisher:     publisher,
		logger:        logger,
		cfg:           cfg,
		locks:         newKeyedMutex(),
	}
}

// ========== BATCH CREATION ==========

func (s *PayrollServiceImpl) CreateBatch(ctx context.Context, actor scope.Actor, req payroll.CreateBatchRequest) (payroll.BatchDetailResponse, error) {
	if err := actor.Validate(); err != nil {
		return payroll.BatchDetailResponse{}, err
	}
	if req.CompanyID == "" && actor.Role == user.RoleEmployer {
		req.CompanyID = *actor.CompanyID
	}
	if req.CreatedBy == nil && actor.UserID != "" {
		req.CreatedBy = &actor.UserID
	}
	if err := req.Validate(); err != nil {
		return payroll.BatchDetailResponse{}, err
	}
	if err := authorizeCompany(actor, req.CompanyID); err != nil {
		return payroll.BatchDetailResponse{}, err
	}

	var (
		batch payroll.PayrollBatch
		items []payroll.PayrollItem
	)
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.payrollRepo.LockCompany(ctx, req.CompanyID); err != nil {
			return fmt.Errorf("failed to lock company: %w", err)
		}

		_, err := s.payrollRepo.GetInProgressBatch(ctx, req.CompanyID)
		switch {
		case err == nil:
			return payroll.ErrBatchAlreadyInProgress
		case !errors.Is(err, payroll.ErrBatchNotFound):
			return fmt.Errorf("failed to check in-progress batch: %w", err)
		}

		account, err := s.ledgerRepo.GetAccount(ctx, req.FundingAccountID)
		if err != nil {
			return err
		}
		if account.OwnerType != ledger.OwnerTypeCompany || account.CompanyID != req.CompanyID {
			return payroll.ErrFundingAccountMismatch
		}

		employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, req.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get active employees: %w", err)
		}

		batchID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate batch id: %w", err)
		}

		items, err = buildItems(batchID.String(), employees, req.BaseSalary)
		if err != nil {
			return err
		}

		total, err := batchTotal(items)
		if err != nil {
			return err
		}

		status := payroll.BatchStatusPending
		if len(items) == 0 {
			status = payroll.BatchStatusCompleted
		}

		batch, err = s.payrollRepo.CreateBatch(ctx, payroll.PayrollBatch{
			ID:               batchID.String(),
			CompanyID:        req.CompanyID,
			FundingAccountID: req.FundingAccountID,
			PayrollMonth:     req.PayrollMonth,
			BaseSalary:       req.BaseSalary,
			Status:           status,
			TotalAmount:      total,
			CreatedBy:        req.CreatedBy,
		})
		if err != nil {
			if errors.Is(err, payroll.ErrBatchAlreadyInProgress) {
				return err
			}
			return fmt.Errorf("failed to create batch: %w", err)
		}

		if len(items) > 0 {
			if err := s.payrollRepo.CreateItems(ctx, items); err != nil {
				return fmt.Errorf("failed to create batch items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return payroll.BatchDetailResponse{}, err
	}

	resp := payroll.ToBatchDetailResponse(batch, items)
	s.logger.Info("payroll batch created",
		slog.String("batch_id", batch.ID),
		slog.String("company_id", batch.CompanyID),
		slog.String("payroll_month", batch.PayrollMonth),
		slog.Int("items", len(items)),
		slog.Int64("total_amount", batch.TotalAmount),
		slog.String("status", string(batch.Status)),
	)
	s.publisher.Publish(events.New(events.BatchCreated, batch.CompanyID, resp.BatchResponse))

	return resp, nil
}

// buildItems snapshots employees into PENDING items, one per employee, in
// directory order.
func buildItems(batchID string, employees []employee.Employee, baseSalary int64) ([]payroll.PayrollItem, error) {
	items := make([]payroll.PayrollItem, 0, len(employees))
	for i, e := range employees {
		breakdown, err := grade.ComputeSalary(e.GradeRank, baseSalary)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", e.ID, err)
		}

		itemID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate item id: %w", err)
		}

		items = append(items, payroll.PayrollItem{
			ID:                itemID.String(),
			BatchID:           batchID,
			Seq:               i + 1,
			EmployeeID:        e.ID,
			EmployeeAccountID: e.AccountID,
			GradeRank:         e.GradeRank,
			BasicSalary:       breakdown.Basic,
			HRA:               breakdown.HRA,
			Medical:           breakdown.Medical,
			GrossSalary:       breakdown.Gross,
			NetAmount:         breakdown.Gross,
			Status:            payroll.ItemStatusPending,
		})
	}
	return items, nil
}

func batchTotal(items []payroll.PayrollItem) (int64, error) {
	var total int64
	for _, item := range items {
		if item.NetAmount > math.MaxInt64-total {
			return 0, payroll.ErrBatchTotalOverflow
		}
		total += item.NetAmount
	}
	return total, nil
}

// ========== READS ==========

func (s *PayrollServiceImpl) GetBatch(ctx context.Context, actor scope.Actor, batchID string) (payroll.BatchDetailResponse, error) {
	batch, err := s.authorizedBatch(ctx, actor, batchID)
	if err != nil {
		return payroll.BatchDetailResponse{}, err
	}

	items, err := s.payrollRepo.GetItemsByBatchID(ctx, batch.ID)
	if err != nil {
		return payroll.BatchDetailResponse{}, fmt.Errorf("failed to get batch items: %w", err)
	}

	return payroll.ToBatchDetailResponse(batch, items), nil
}

func (s *PayrollServiceImpl) GetLastBatch(ctx context.Context, actor scope.Actor, companyID string) (*payroll.BatchResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if companyID == "" && actor.CompanyID != nil {
		companyID = *actor.CompanyID
	}
	if err := authorizeCompany(actor, companyID); err != nil {
		return nil, err
	}

	batch, err := s.payrollRepo.GetLastBatch(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrBatchNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last batch: %w", err)
	}

	resp := payroll.ToBatchResponse(batch)
	return &resp, nil
}

func (s *PayrollServiceImpl) ListBatches(ctx context.Context, actor scope.Actor, filter payroll.BatchFilter) (payroll.ListBatchResponse, error) {
	if err := actor.Validate(); err != nil {
		return payroll.ListBatchResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return payroll.ListBatchResponse{}, err
	}

	sc := scope.Resolve(actor)
	if filter.CompanyID != nil {
		sc = sc.WithCompany(*filter.CompanyID)
	}
	filter.CompanyID = sc.CompanyFilter()
	if filter.CompanyID != nil {
		if err := authorizeCompany(actor, *filter.CompanyID); err != nil {
			return payroll.ListBatchResponse{}, err
		}
	} else if actor.Role != user.RoleAdmin {
		return payroll.ListBatchResponse{}, scope.ErrForbidden
	}

	batches, total, err := s.payrollRepo.ListBatches(ctx, filter)
	if err != nil {
		return payroll.ListBatchResponse{}, fmt.Errorf("failed to list batches: %w", err)
	}

	data := make([]payroll.BatchResponse, 0, len(batches))
	for _, b := range batches {
		data = append(data, payroll.ToBatchResponse(b))
	}

	return payroll.ListBatchResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// authorizedBatch loads a batch and checks the actor may act on its company.
func (s *PayrollServiceImpl) authorizedBatch(ctx context.Context, actor scope.Actor, batchID string) (payroll.PayrollBatch, error) {
	if err := actor.Validate(); err != nil {
		return payroll.PayrollBatch{}, err
	}

	batch, err := s.payrollRepo.GetBatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, payroll.ErrBatchNotFound) {
			return payroll.PayrollBatch{}, err
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to get batch: %w", err)
	}

	if err := authorizeCompany(actor, batch.CompanyID); err != nil {
		return payroll.PayrollBatch{}, err
	}
	return batch, nil
}

func authorizeCompany(actor scope.Actor, companyID string) error {
	if !scope.Resolve(actor).Allows(scope.CompanySubject(companyID)) {
		return scope.ErrForbidden
	}
	return nil
}
