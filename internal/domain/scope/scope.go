// Package scope decides which companies, employees, accounts and
// transactions a caller may see. Every read path (employee listing,
// transaction query, balance lookup) resolves visibility through Resolve so
// the rules live in exactly one place.
//
// Visibility by role:
//
//	admin     every subject; an optional company filter narrows the view
//	employer  subjects of the employer's own company
//	employee  the employee's own records, plus employees of the same company
//	          whose grade rank is numerically higher (downstream)
package scope

import (
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/master/grade"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
)

// Actor is the caller identity every scoped operation receives explicitly.
type Actor struct {
	Role       user.Role
	UserID     string
	EmployeeID *string
	CompanyID  *string
	GradeRank  *int
}

// Validate checks that the actor carries the identifiers its role needs.
func (a Actor) Validate() error {
	switch a.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleEmployer:
		if a.CompanyID == nil || *a.CompanyID == "" {
			return ErrMissingCompany
		}
		return nil
	case user.RoleEmployee:
		if a.EmployeeID == nil || *a.EmployeeID == "" {
			return ErrMissingEmployee
		}
		return nil
	default:
		return ErrUnknownRole
	}
}

// Subject is the visibility-relevant projection of an employee, an account or
// one side of a transaction. Company-level subjects leave EmployeeID empty.
type Subject struct {
	CompanyID  string
	EmployeeID string
	GradeRank  *int
}

// CompanySubject is the subject of a company-owned record.
func CompanySubject(companyID string) Subject {
	return Subject{CompanyID: companyID}
}

// EmployeeSubject is the subject of an employee or an employee-owned account.
func EmployeeSubject(companyID, employeeID string, gradeRank int) Subject {
	rank := gradeRank
	return Subject{CompanyID: companyID, EmployeeID: employeeID, GradeRank: &rank}
}

// Scope is a resolved visibility predicate.
type Scope struct {
	actor         Actor
	companyFilter *string
}

// Resolve builds the visibility predicate for actor.
func Resolve(actor Actor) Scope {
	return Scope{actor: actor}
}

// WithCompany narrows the scope to one company. For admins this is a
// convenience filter; for other roles it can only narrow further.
func (s Scope) WithCompany(companyID string) Scope {
	if companyID == "" {
		return s
	}
	s.companyFilter = &companyID
	return s
}

// Actor returns the actor the scope was resolved for.
func (s Scope) Actor() Actor {
	return s.actor
}

// CompanyFilter returns the company storage queries can be narrowed to, or
// nil when the scope spans companies. It never widens what Allows accepts.
func (s Scope) CompanyFilter() *string {
	if s.companyFilter != nil {
		return s.companyFilter
	}
	switch s.actor.Role {
	case user.RoleEmployer, user.RoleEmployee:
		return s.actor.CompanyID
	}
	return nil
}

// Allows reports whether subject is visible.
func (s Scope) Allows(subject Subject) bool {
	if s.companyFilter != nil && subject.CompanyID != *s.companyFilter {
		return false
	}

	switch s.actor.Role {
	case user.RoleAdmin:
		return true

	case user.RoleEmployer:
		return s.actor.CompanyID != nil && subject.CompanyID == *s.actor.CompanyID

	case user.RoleEmployee:
		if subject.EmployeeID != "" && s.actor.EmployeeID != nil && subject.EmployeeID == *s.actor.EmployeeID {
			return true
		}
		// No grade rank means self only.
		if s.actor.GradeRank == nil || s.actor.CompanyID == nil {
			return false
		}
		if subject.EmployeeID == "" || subject.GradeRank == nil {
			return false
		}
		return subject.CompanyID == *s.actor.CompanyID && grade.IsDownstream(*s.actor.GradeRank, *subject.GradeRank)

	default:
		return false
	}
}

// AllowsAny reports whether at least one of the subjects is visible. A
// transaction is visible when either of its accounts is.
func (s Scope) AllowsAny(subjects ...Subject) bool {
	for _, subject := range subjects {
		if s.Allows(subject) {
			return true
		}
	}
	return false
}
