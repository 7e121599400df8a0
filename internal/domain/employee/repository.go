package employee

import "context"

// EmployeeRepository is the employee directory. Payroll only reads it; Save
// exists for provisioning.
type EmployeeRepository interface {
	Save(ctx context.Context, e Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	// ListByCompanyID lists every employee; a nil companyID lists all companies.
	ListByCompanyID(ctx context.Context, companyID *string) ([]Employee, error)
	GetByAccountIDs(ctx context.Context, accountIDs []string) ([]Employee, error)
}
