package ledger

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
)

// resolveSubjects maps account IDs to the visibility subject of their owner.
// Employee accounts carry the owner's grade rank; external accounts map to an
// empty subject that only admins can see.
func (s *LedgerServiceImpl) resolveSubjects(ctx context.Context, accountIDs []string) (map[string]scope.Subject, error) {
	subjects := make(map[string]scope.Subject, len(accountIDs))
	if len(accountIDs) == 0 {
		return subjects, nil
	}

	accounts, err := s.ledgerRepo.GetAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	var employeeAccountIDs []string
	for _, a := range accounts {
		switch a.OwnerType {
		case ledger.OwnerTypeCompany:
			subjects[a.ID] = scope.CompanySubject(a.CompanyID)
		case ledger.OwnerTypeEmployee:
			subjects[a.ID] = scope.Subject{CompanyID: a.CompanyID, EmployeeID: a.OwnerID}
			employeeAccountIDs = append(employeeAccountIDs, a.ID)
		default:
			subjects[a.ID] = scope.Subject{}
		}
	}

	if len(employeeAccountIDs) == 0 {
		return subjects, nil
	}

	employees, err := s.employeeRepo.GetByAccountIDs(ctx, employeeAccountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get account owners: %w", err)
	}
	for _, e := range employees {
		subjects[e.AccountID] = scope.EmployeeSubject(e.CompanyID, e.ID, e.GradeRank)
	}

	return subjects, nil
}

func accountIDsOf(txs []ledger.Transaction) []string {
	seen := make(map[string]struct{}, len(txs)*2)
	ids := make([]string, 0, len(txs)*2)
	for _, tx := range txs {
		for _, id := range []string{tx.DebitAccountID, tx.CreditAccountID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}
