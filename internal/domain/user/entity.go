package user

type Role string

const (
	RoleAdmin    Role = "admin"    // System administrator - every company
	RoleEmployer Role = "employer" // Company payroll operator
	RoleEmployee Role = "employee" // Regular employee
)
