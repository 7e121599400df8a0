package ledger

import (
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/validator"
)

// TransferMetadata links a transfer back to the payroll record it settles.
type TransferMetadata struct {
	BatchID     *string
	ItemID      *string
	ReversalOf  *string
	Description *string
}

type TransferRequest struct {
	DebitAccountID  string
	CreditAccountID string
	Amount          int64
	Type            TransactionType
	Category        Category
	Metadata        TransferMetadata
}

// Validate rejects malformed transfers before any account is touched.
// Amount and same-account checks return sentinel errors so callers can
// match them with errors.Is.
func (r *TransferRequest) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if r.DebitAccountID != "" && r.DebitAccountID == r.CreditAccountID {
		return ErrSameAccount
	}

	var errs validator.ValidationErrors
	if validator.IsEmpty(r.DebitAccountID) {
		errs = append(errs, validator.ValidationError{Field: "debit_account_id", Message: "is required"})
	}
	if validator.IsEmpty(r.CreditAccountID) {
		errs = append(errs, validator.ValidationError{Field: "credit_account_id", Message: "is required"})
	}
	if r.Type == "" {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "is required"})
	}
	if r.Category == "" {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TransactionFilter struct {
	AccountID *string            `json:"account_id,omitempty"`
	CompanyID *string            `json:"company_id,omitempty"` // either side owned by the company
	BatchID   *string            `json:"batch_id,omitempty"`
	ItemID    *string            `json:"item_id,omitempty"`
	From      *time.Time         `json:"from,omitempty"`
	To        *time.Time         `json:"to,omitempty"`
	Type      *TransactionType   `json:"type,omitempty"`
	Category  *Category          `json:"category,omitempty"`
	Status    *TransactionStatus `json:"status,omitempty"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortOrder string             `json:"sort_order"` // "desc" (default) or "asc"
}

// Matches applies the filter to one transaction. Account ownership
// (CompanyID) is resolved by the repository, not here.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if f.AccountID != nil && tx.DebitAccountID != *f.AccountID && tx.CreditAccountID != *f.AccountID {
		return false
	}
	if f.BatchID != nil && (tx.PayrollBatchID == nil || *tx.PayrollBatchID != *f.BatchID) {
		return false
	}
	if f.ItemID != nil && (tx.PayrollItemID == nil || *tx.PayrollItemID != *f.ItemID) {
		return false
	}
	if f.From != nil && tx.ProcessedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.ProcessedAt.After(*f.To) {
		return false
	}
	if f.Type != nil && tx.Type != *f.Type {
		return false
	}
	if f.Category != nil && tx.Category != *f.Category {
		return false
	}
	if f.Status != nil && tx.Status != *f.Status {
		return false
	}
	return true
}

type ReverseRequest struct {
	TransactionID string `json:"-"`
	Reason        string `json:"reason"`
}

func (r *ReverseRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.TransactionID) {
		errs = append(errs, validator.ValidationError{Field: "transaction_id", Message: "is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "is required"})
	}
	if len(r.Reason) > 255 {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "must not exceed 255 characters"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TransactionResponse struct {
	ID              string  `json:"id"`
	DebitAccountID  string  `json:"debit_account_id"`
	CreditAccountID string  `json:"credit_account_id"`
	Amount          int64   `json:"amount"`
	Type            string  `json:"type"`
	Category        string  `json:"category"`
	PayrollBatchID  *string `json:"payroll_batch_id,omitempty"`
	PayrollItemID   *string `json:"payroll_item_id,omitempty"`
	ReversalOf      *string `json:"reversal_of,omitempty"`
	Status          string  `json:"transaction_status"`
	Description     *string `json:"description,omitempty"`
	ProcessedAt     string  `json:"processed_at"`
}

type BalanceResponse struct {
	AccountID      string `json:"account_id"`
	OwnerType      string `json:"owner_type"`
	CompanyID      string `json:"company_id,omitempty"`
	CurrentBalance int64  `json:"current_balance"`
	OverdraftLimit int64  `json:"overdraft_limit"`
	Available      int64  `json:"available"`
}

func ToTransactionResponse(tx Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		DebitAccountID:  tx.DebitAccountID,
		CreditAccountID: tx.CreditAccountID,
		Amount:          tx.Amount,
		Type:            string(tx.Type),
		Category:        string(tx.Category),
		PayrollBatchID:  tx.PayrollBatchID,
		PayrollItemID:   tx.PayrollItemID,
		ReversalOf:      tx.ReversalOf,
		Status:          string(tx.Status),
		Description:     tx.Description,
		ProcessedAt:     tx.ProcessedAt.Format(time.RFC3339),
	}
}

func ToBalanceResponse(a Account) BalanceResponse {
	return BalanceResponse{
		AccountID:      a.ID,
		OwnerType:      string(a.OwnerType),
		CompanyID:      a.CompanyID,
		CurrentBalance: a.CurrentBalance,
		OverdraftLimit: a.OverdraftLimit,
		Available:      a.Available(),
	}
}
