package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll batches and items.
type PayrollRepository interface {
	// LockCompany serializes batch creation for one company until the
	// surrounding transaction ends.
	LockCompany(ctx context.Context, companyID string) error

	// Batches
	CreateBatch(ctx context.Context, batch PayrollBatch) (PayrollBatch, error)
	GetBatchByID(ctx context.Context, id string) (PayrollBatch, error)
	// GetBatchForUpdate locks the batch row until the surrounding
	// transaction ends.
	GetBatchForUpdate(ctx context.Context, id string) (PayrollBatch, error)
	// GetInProgressBatch returns the PENDING or PROCESSING batch of a
	// company, or ErrBatchNotFound.
	GetInProgressBatch(ctx context.Context, companyID string) (PayrollBatch, error)
	GetLastBatch(ctx context.Context, companyID string) (PayrollBatch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]PayrollBatch, int64, error)
	UpdateBatchStatus(ctx context.Context, id string, status BatchStatus, processedAt *time.Time) error
	// AddExecutedAmount fails with ErrExecutedExceedsTotal instead of
	// pushing ExecutedAmount above TotalAmount.
	AddExecutedAmount(ctx context.Context, id string, amount int64) (PayrollBatch, error)

	// Items
	CreateItems(ctx context.Context, items []PayrollItem) error
	GetItemByID(ctx context.Context, id string) (PayrollItem, error)
	GetItemsByBatchID(ctx context.Context, batchID string) ([]PayrollItem, error)
	MarkItemPaid(ctx context.Context, id string, transactionID *string, paidAt time.Time) error
	MarkItemFailed(ctx context.Context, id string, reason string) error
}
