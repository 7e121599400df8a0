package employee

import (
	"context"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
)

// EmployeeService exposes the directory through the caller's visibility scope.
type EmployeeService interface {
	// ListVisible lists the employees the actor is entitled to see.
	ListVisible(ctx context.Context, actor scope.Actor, filter EmployeeFilter) ([]EmployeeResponse, error)

	// GetVisible returns one employee, or ErrUnauthorized when outside the actor's scope.
	GetVisible(ctx context.Context, actor scope.Actor, id string) (EmployeeResponse, error)
}
