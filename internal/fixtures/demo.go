package fixtures

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/google/uuid"
)

// ==========================================
// DEMO DATA
// ==========================================

// DemoEmployee describes one seeded employee.
type DemoEmployee struct {
	Code      string
	FullName  string
	GradeRank int
}

// DemoEmployees is the default staff of the demo company, most senior first.
var DemoEmployees = []DemoEmployee{
	{Code: "EMP-0001", FullName: "Nadia Putri", GradeRank: 1},
	{Code: "EMP-0002", FullName: "Bima Santoso", GradeRank: 2},
	{Code: "EMP-0003", FullName: "Citra Lestari", GradeRank: 3},
	{Code: "EMP-0004", FullName: "Dimas Pratama", GradeRank: 4},
	{Code: "EMP-0005", FullName: "Eka Wulandari", GradeRank: 5},
	{Code: "EMP-0006", FullName: "Fajar Nugroho", GradeRank: 6},
	{Code: "EMP-0007", FullName: "Gita Maharani", GradeRank: 6},
}

// SeededDataIDs holds the IDs created by SeedDemo
type SeededDataIDs struct {
	CompanyID              string
	FundingAccountID       string
	FundingSourceAccountID string

	// Employee IDs by employee code
	EmployeeIDs map[string]string
}

// SeedDemo creates one company with a funding account, an external top-up
// source and DemoEmployees, each with an empty salary account.
func SeedDemo(ctx context.Context, ledgerRepo ledger.LedgerRepository, employeeRepo employee.EmployeeRepository, openingBalance int64) (SeededDataIDs, error) {
	ids := SeededDataIDs{
		CompanyID:   newID(),
		EmployeeIDs: make(map[string]string, len(DemoEmployees)),
	}

	funding, err := ledgerRepo.CreateAccount(ctx, ledger.Account{
		ID:             newID(),
		OwnerType:      ledger.OwnerTypeCompany,
		OwnerID:        ids.CompanyID,
		CompanyID:      ids.CompanyID,
		CurrentBalance: openingBalance,
	})
	if err != nil {
		return SeededDataIDs{}, fmt.Errorf("failed to seed funding account: %w", err)
	}
	ids.FundingAccountID = funding.ID

	source, err := ledgerRepo.CreateAccount(ctx, ledger.Account{
		ID:             newID(),
		OwnerType:      ledger.OwnerTypeExternal,
		OwnerID:        "demo-bank",
		OverdraftLimit: 1 << 50,
	})
	if err != nil {
		return SeededDataIDs{}, fmt.Errorf("failed to seed funding source: %w", err)
	}
	ids.FundingSourceAccountID = source.ID

	for _, d := range DemoEmployees {
		employeeID := newID()
		account, err := ledgerRepo.CreateAccount(ctx, ledger.Account{
			ID:        newID(),
			OwnerType: ledger.OwnerTypeEmployee,
			OwnerID:   employeeID,
			CompanyID: ids.CompanyID,
		})
		if err != nil {
			return SeededDataIDs{}, fmt.Errorf("failed to seed account of %s: %w", d.Code, err)
		}

		e, err := employeeRepo.Save(ctx, employee.Employee{
			ID:               employeeID,
			CompanyID:        ids.CompanyID,
			EmployeeCode:     d.Code,
			FullName:         d.FullName,
			GradeRank:        d.GradeRank,
			AccountID:        account.ID,
			EmploymentStatus: employee.EmploymentStatusActive,
		})
		if err != nil {
			return SeededDataIDs{}, fmt.Errorf("failed to seed employee %s: %w", d.Code, err)
		}
		ids.EmployeeIDs[d.Code] = e.ID
	}

	return ids, nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
