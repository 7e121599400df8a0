package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/payslip"
)

// GetPayslip renders the payslip of one item. Visibility follows the item's
// employee, so employees can read their own payslips.
func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, actor scope.Actor, itemID string) (payroll.PayslipFile, error) {
	if err := actor.Validate(); err != nil {
		return payroll.PayslipFile{}, err
	}

	item, err := s.payrollRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return payroll.PayslipFile{}, err
	}
	batch, err := s.payrollRepo.GetBatchByID(ctx, item.BatchID)
	if err != nil {
		return payroll.PayslipFile{}, err
	}

	subject := scope.EmployeeSubject(batch.CompanyID, item.EmployeeID, item.GradeRank)
	if !scope.Resolve(actor).Allows(subject) {
		return payroll.PayslipFile{}, scope.ErrForbidden
	}

	data := payslip.Data{
		CompanyID:    batch.CompanyID,
		BatchID:      batch.ID,
		PayrollMonth: batch.PayrollMonth,
		EmployeeID:   item.EmployeeID,
		EmployeeName: item.EmployeeID,
		GradeRank:    item.GradeRank,
		BasicSalary:  item.BasicSalary,
		HRA:          item.HRA,
		Medical:      item.Medical,
		GrossSalary:  item.GrossSalary,
		NetAmount:    item.NetAmount,
		Status:       string(item.Status),
		PaidAt:       item.PaidAt,
	}
	if item.TransactionID != nil {
		data.TransactionID = *item.TransactionID
	}

	e, err := s.employeeRepo.GetByID(ctx, item.EmployeeID)
	switch {
	case err == nil:
		data.EmployeeName = e.FullName
		data.EmployeeCode = e.EmployeeCode
	case !errors.Is(err, employee.ErrEmployeeNotFound):
		return payroll.PayslipFile{}, fmt.Errorf("failed to get employee: %w", err)
	}

	content, err := payslip.Render(data)
	if err != nil {
		return payroll.PayslipFile{}, err
	}
	return payroll.PayslipFile{FileName: data.FileName(), Content: content}, nil
}
