package payroll

import (
	"context"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
)

type PayrollService interface {
	// CreateBatch snapshots the active employees of a company into a new
	// batch with one PENDING item each.
	CreateBatch(ctx context.Context, actor scope.Actor, req CreateBatchRequest) (BatchDetailResponse, error)

	// Process pays every unpaid item of a batch in item order. Safe to call
	// again after a top-up; PAID items are never paid twice.
	Process(ctx context.Context, actor scope.Actor, batchID string) (ProcessResult, error)

	// CheckFunds compares the remaining obligation of a batch with the
	// balance of its funding account.
	CheckFunds(ctx context.Context, actor scope.Actor, batchID string) (FundsCheck, error)

	// Execute processes the batch only when funds are sufficient.
	Execute(ctx context.Context, actor scope.Actor, batchID string) (ExecuteResult, error)

	// TopUp credits the funding account of a batch and resumes processing
	// when the gate passes afterwards.
	TopUp(ctx context.Context, actor scope.Actor, req TopUpRequest) (TopUpResult, error)

	GetBatch(ctx context.Context, actor scope.Actor, batchID string) (BatchDetailResponse, error)
	// GetLastBatch returns nil when the company has no batch yet.
	GetLastBatch(ctx context.Context, actor scope.Actor, companyID string) (*BatchResponse, error)
	ListBatches(ctx context.Context, actor scope.Actor, filter BatchFilter) (ListBatchResponse, error)

	GetPayslip(ctx context.Context, actor scope.Actor, itemID string) (PayslipFile, error)
}
