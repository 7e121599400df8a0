package payroll

import "time"

// BatchStatus enum
type BatchStatus string

const (
	BatchStatusPending            BatchStatus = "PENDING"
	BatchStatusProcessing         BatchStatus = "PROCESSING"
	BatchStatusCompleted          BatchStatus = "COMPLETED"
	BatchStatusPartiallyCompleted BatchStatus = "PARTIALLY_COMPLETED"
	BatchStatusFailed             BatchStatus = "FAILED"
)

// IsInProgress reports whether the batch blocks creation of another batch
// for the same company.
func (s BatchStatus) IsInProgress() bool {
	return s == BatchStatusPending || s == BatchStatusProcessing
}

// ItemStatus enum
type ItemStatus string

const (
	ItemStatusPending ItemStatus = "PENDING"
	ItemStatusPaid    ItemStatus = "PAID"
	ItemStatusFailed  ItemStatus = "FAILED"
)

// PayrollBatch - one payroll run for a company and month
type PayrollBatch struct {
	ID               string
	CompanyID        string
	FundingAccountID string
	PayrollMonth     string // YYYY-MM
	BaseSalary       int64
	Status           BatchStatus
	TotalAmount      int64 // fixed at creation
	ExecutedAmount   int64 // sum of paid items, never above TotalAmount
	CreatedBy        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProcessedAt      *time.Time
}

// Remaining is the obligation not yet disbursed.
func (b PayrollBatch) Remaining() int64 {
	if b.ExecutedAmount >= b.TotalAmount {
		return 0
	}
	return b.TotalAmount - b.ExecutedAmount
}

// PayrollItem - one employee's obligation within a batch. Employee account
// and grade are copied at batch creation so later directory changes do not
// alter the batch.
type PayrollItem struct {
	ID                string
	BatchID           string
	Seq               int
	EmployeeID        string
	EmployeeAccountID string
	GradeRank         int
	BasicSalary       int64
	HRA               int64
	Medical           int64
	GrossSalary       int64
	NetAmount         int64
	Status            ItemStatus
	FailureReason     *string
	TransactionID     *string
	Attempts          int
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Summary aggregates item states of one batch.
type Summary struct {
	PaidCount    int
	FailedCount  int
	PendingCount int
	PaidAmount   int64
	FailedAmount int64
}

func Summarize(items []PayrollItem) Summary {
	var s Summary
	for _, item := range items {
		switch item.Status {
		case ItemStatusPaid:
			s.PaidCount++
			s.PaidAmount += item.NetAmount
		case ItemStatusFailed:
			s.FailedCount++
			s.FailedAmount += item.NetAmount
		default:
			s.PendingCount++
		}
	}
	return s
}

// Status is the terminal batch status after a disbursement pass.
func (s Summary) Status() BatchStatus {
	switch {
	case s.FailedCount == 0 && s.PendingCount == 0:
		return BatchStatusCompleted
	case s.PaidCount == 0:
		return BatchStatusFailed
	default:
		return BatchStatusPartiallyCompleted
	}
}
