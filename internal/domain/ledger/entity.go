package ledger

import "time"

// OwnerType enum
type OwnerType string

const (
	OwnerTypeCompany  OwnerType = "COMPANY"
	OwnerTypeEmployee OwnerType = "EMPLOYEE"
	// OwnerTypeExternal is an outside funding source used for top-ups.
	OwnerTypeExternal OwnerType = "EXTERNAL"
)

// Account - balances are mutated only through ledger transfers
type Account struct {
	ID             string
	OwnerType      OwnerType
	OwnerID        string
	CompanyID      string // empty for external accounts
	CurrentBalance int64  // minor currency units
	OverdraftLimit int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Available is the most the account can be debited by.
func (a Account) Available() int64 {
	return a.CurrentBalance + a.OverdraftLimit
}

// TransactionType enum
type TransactionType string

const (
	TransactionTypeSalaryDisbursement TransactionType = "SALARY_DISBURSEMENT"
	TransactionTypeTopUp              TransactionType = "TOP_UP"
	TransactionTypeAdjustment         TransactionType = "ADJUSTMENT"
	TransactionTypeReversal           TransactionType = "REVERSAL"
)

// Category enum
type Category string

const (
	CategoryPayroll Category = "PAYROLL"
	CategorySystem  Category = "SYSTEM"
)

// TransactionStatus enum
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction - immutable record of one balance movement
type Transaction struct {
	ID              string
	DebitAccountID  string
	CreditAccountID string
	Amount          int64
	Type            TransactionType
	Category        Category
	PayrollBatchID  *string
	PayrollItemID   *string
	ReversalOf      *string
	Status          TransactionStatus
	Description     *string
	ProcessedAt     time.Time
}
