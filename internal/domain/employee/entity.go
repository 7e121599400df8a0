package employee

import "time"

// Employee is the directory record the payroll core reads. The directory owns
// the employee lifecycle; payroll only snapshots it.
type Employee struct {
	ID               string
	CompanyID        string
	UserID           *string
	EmployeeCode     string
	FullName         string
	GradeRank        int
	AccountID        string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
