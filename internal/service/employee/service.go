package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository) employee.EmployeeService {
	return &EmployeeServiceImpl{employeeRepo: employeeRepo}
}

func (s *EmployeeServiceImpl) ListVisible(ctx context.Context, actor scope.Actor, filter employee.EmployeeFilter) ([]employee.EmployeeResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	sc := scope.Resolve(actor)
	if filter.CompanyID != nil {
		sc = sc.WithCompany(*filter.CompanyID)
	}

	employees, err := s.employeeRepo.ListByCompanyID(ctx, sc.CompanyFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	visible := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		if filter.ActiveOnly && !e.IsActive() {
			continue
		}
		if !sc.Allows(subjectOf(e)) {
			continue
		}
		visible = append(visible, employee.ToResponse(e))
	}
	return visible, nil
}

func (s *EmployeeServiceImpl) GetVisible(ctx context.Context, actor scope.Actor, id string) (employee.EmployeeResponse, error) {
	if err := actor.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	e, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.EmployeeResponse{}, err
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	if !scope.Resolve(actor).Allows(subjectOf(e)) {
		return employee.EmployeeResponse{}, employee.ErrUnauthorized
	}
	return employee.ToResponse(e), nil
}

func subjectOf(e employee.Employee) scope.Subject {
	return scope.EmployeeSubject(e.CompanyID, e.ID, e.GradeRank)
}
