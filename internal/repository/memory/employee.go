package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/google/uuid"
)

type EmployeeRepositoryImpl struct {
	*Store
}

func NewEmployeeRepository(store *Store) *EmployeeRepositoryImpl {
	return &EmployeeRepositoryImpl{Store: store}
}

// Save inserts or replaces an employee. The payroll core never writes the
// directory; this is for seeding.
func (r *EmployeeRepositoryImpl) Save(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return employee.Employee{}, err
		}
		e.ID = id.String()
	}
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	err := r.write(ctx, func() error {
		r.employees[e.ID] = e
		return nil
	})
	return e, err
}

func (r *EmployeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var e employee.Employee
	err := r.read(func() error {
		found, ok := r.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		e = found
		return nil
	})
	return e, err
}

func (r *EmployeeRepositoryImpl) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	all, err := r.ListByCompanyID(ctx, &companyID)
	if err != nil {
		return nil, err
	}
	active := make([]employee.Employee, 0, len(all))
	for _, e := range all {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	return active, nil
}

func (r *EmployeeRepositoryImpl) ListByCompanyID(ctx context.Context, companyID *string) ([]employee.Employee, error) {
	var result []employee.Employee
	err := r.read(func() error {
		for _, e := range r.employees {
			if companyID != nil && e.CompanyID != *companyID {
				continue
			}
			result = append(result, e)
		}
		return nil
	})
	sortEmployees(result)
	return result, err
}

func (r *EmployeeRepositoryImpl) GetByAccountIDs(ctx context.Context, accountIDs []string) ([]employee.Employee, error) {
	wanted := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = struct{}{}
	}

	var result []employee.Employee
	err := r.read(func() error {
		for _, e := range r.employees {
			if _, ok := wanted[e.AccountID]; ok {
				result = append(result, e)
			}
		}
		return nil
	})
	sortEmployees(result)
	return result, err
}

// sortEmployees orders by employee code, the same order the SQL repository
// returns.
func sortEmployees(employees []employee.Employee) {
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].EmployeeCode != employees[j].EmployeeCode {
			return employees[i].EmployeeCode < employees[j].EmployeeCode
		}
		return employees[i].ID < employees[j].ID
	})
}
