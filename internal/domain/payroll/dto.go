package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/master/grade"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/validator"
)

// ========== BATCH DTOs ==========

type CreateBatchRequest struct {
	CompanyID        string  `json:"company_id"`
	FundingAccountID string  `json:"funding_account_id"`
	PayrollMonth     string  `json:"payroll_month"` // YYYY-MM
	BaseSalary       int64   `json:"base_salary"`
	CreatedBy        *string `json:"-"`
}

func (r *CreateBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CompanyID) {
		errs = append(errs, validator.ValidationError{Field: "company_id", Message: "is required"})
	}
	if validator.IsEmpty(r.FundingAccountID) {
		errs = append(errs, validator.ValidationError{Field: "funding_account_id", Message: "is required"})
	}
	if _, ok := validator.IsValidMonth(r.PayrollMonth); !ok {
		errs = append(errs, validator.ValidationError{Field: "payroll_month", Message: "must be in YYYY-MM format"})
	}
	if r.BaseSalary < 0 {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be non-negative"})
	}
	if r.BaseSalary > grade.MaxBaseSalary {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: fmt.Sprintf("must not exceed %d", grade.MaxBaseSalary)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TopUpRequest struct {
	BatchID string `json:"-"`
	Amount  int64  `json:"amount"`
}

func (r *TopUpRequest) Validate() error {
	if r.Amount <= 0 {
		return ledger.ErrInvalidAmount
	}
	if validator.IsEmpty(r.BatchID) {
		return validator.ValidationErrors{{Field: "batch_id", Message: "is required"}}
	}
	return nil
}

type BatchFilter struct {
	CompanyID    *string `json:"company_id,omitempty"`
	Status       *string `json:"status,omitempty"`
	PayrollMonth *string `json:"payroll_month,omitempty"`
	Page         int     `json:"page"`
	Limit        int     `json:"limit"`
	SortOrder    string  `json:"sort_order"`
}

func (f *BatchFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil {
		statuses := []string{
			string(BatchStatusPending), string(BatchStatusProcessing), string(BatchStatusCompleted),
			string(BatchStatusPartiallyCompleted), string(BatchStatusFailed),
		}
		if !validator.IsInSlice(*f.Status, statuses) {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "is not a valid batch status"})
		}
	}
	if f.PayrollMonth != nil {
		if _, ok := validator.IsValidMonth(*f.PayrollMonth); !ok {
			errs = append(errs, validator.ValidationError{Field: "payroll_month", Message: "must be in YYYY-MM format"})
		}
	}
	if f.SortOrder != "" && f.SortOrder != "asc" && f.SortOrder != "desc" {
		errs = append(errs, validator.ValidationError{Field: "sort_order", Message: "must be 'asc' or 'desc'"})
	}

	if len(errs) > 0 {
		return errs
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return nil
}

// ========== RESPONSES ==========

type BatchResponse struct {
	ID               string  `json:"id"`
	CompanyID        string  `json:"company_id"`
	FundingAccountID string  `json:"funding_account_id"`
	PayrollMonth     string  `json:"payroll_month"`
	BaseSalary       int64   `json:"base_salary"`
	Status           string  `json:"status"`
	TotalAmount      int64   `json:"total_amount"`
	ExecutedAmount   int64   `json:"executed_amount"`
	CreatedBy        *string `json:"created_by,omitempty"`
	CreatedAt        string  `json:"created_at"`
	ProcessedAt      *string `json:"processed_at,omitempty"`
}

type ItemResponse struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	EmployeeAccountID string  `json:"employee_account_id"`
	GradeRank         int     `json:"grade_rank"`
	BasicSalary       int64   `json:"basic_salary"`
	HRA               int64   `json:"hra"`
	Medical           int64   `json:"medical"`
	GrossSalary       int64   `json:"gross_salary"`
	NetAmount         int64   `json:"net_amount"`
	Status            string  `json:"status"`
	FailureReason     *string `json:"failure_reason,omitempty"`
	TransactionID     *string `json:"transaction_id,omitempty"`
	Attempts          int     `json:"attempts"`
	PaidAt            *string `json:"paid_at,omitempty"`
}

type BatchDetailResponse struct {
	BatchResponse
	PaidCount    int            `json:"paid_count"`
	FailedCount  int            `json:"failed_count"`
	PendingCount int            `json:"pending_count"`
	Items        []ItemResponse `json:"items"`
}

type ListBatchResponse struct {
	Data       []BatchResponse `json:"data"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

// ProcessResult reports batch-wide counts after a disbursement pass.
// PaidThisRun counts only the items paid by this invocation.
type ProcessResult struct {
	BatchID         string         `json:"batch_id"`
	Status          string         `json:"status"`
	SuccessCount    int            `json:"success_count"`
	FailedCount     int            `json:"failed_count"`
	ProcessedAmount int64          `json:"processed_amount"`
	FailedAmount    int64          `json:"failed_amount"`
	PaidThisRun     int            `json:"paid_this_run"`
	Items           []ItemResponse `json:"items"`
}

type ExecuteResult struct {
	Funds   FundsCheck     `json:"funds"`
	Process *ProcessResult `json:"process,omitempty"`
}

type TopUpResult struct {
	Transaction ledger.TransactionResponse `json:"transaction"`
	Funds       FundsCheck                 `json:"funds"`
	Process     *ProcessResult             `json:"process,omitempty"`
}

type PayslipFile struct {
	FileName string
	Content  []byte
}

func ToBatchResponse(b PayrollBatch) BatchResponse {
	resp := BatchResponse{
		ID:               b.ID,
		CompanyID:        b.CompanyID,
		FundingAccountID: b.FundingAccountID,
		PayrollMonth:     b.PayrollMonth,
		BaseSalary:       b.BaseSalary,
		Status:           string(b.Status),
		TotalAmount:      b.TotalAmount,
		ExecutedAmount:   b.ExecutedAmount,
		CreatedBy:        b.CreatedBy,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
	}
	if b.ProcessedAt != nil {
		s := b.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

func ToItemResponse(i PayrollItem) ItemResponse {
	resp := ItemResponse{
		ID:                i.ID,
		EmployeeID:        i.EmployeeID,
		EmployeeAccountID: i.EmployeeAccountID,
		GradeRank:         i.GradeRank,
		BasicSalary:       i.BasicSalary,
		HRA:               i.HRA,
		Medical:           i.Medical,
		GrossSalary:       i.GrossSalary,
		NetAmount:         i.NetAmount,
		Status:            string(i.Status),
		FailureReason:     i.FailureReason,
		TransactionID:     i.TransactionID,
		Attempts:          i.Attempts,
	}
	if i.PaidAt != nil {
		s := i.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &s
	}
	return resp
}

func ToItemResponses(items []PayrollItem) []ItemResponse {
	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, ToItemResponse(item))
	}
	return resp
}

func ToBatchDetailResponse(b PayrollBatch, items []PayrollItem) BatchDetailResponse {
	s := Summarize(items)
	return BatchDetailResponse{
		BatchResponse: ToBatchResponse(b),
		PaidCount:     s.PaidCount,
		FailedCount:   s.FailedCount,
		PendingCount:  s.PendingCount,
		Items:         ToItemResponses(items),
	}
}
