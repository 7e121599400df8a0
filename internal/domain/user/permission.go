package user

type Permission string

const (
	// Payroll
	PermissionPayrollView     Permission = "payroll.view"
	PermissionPayrollManage   Permission = "payroll.manage"
	PermissionPayrollDisburse Permission = "payroll.disburse"
	PermissionPayrollTopUp    Permission = "payroll.top_up"
	PermissionPayslipView     Permission = "payslip.view"

	// Ledger
	PermissionLedgerView    Permission = "ledger.view"
	PermissionLedgerReverse Permission = "ledger.reverse"

	// Employee directory
	PermissionEmployeeView Permission = "employee.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionPayrollView,
		PermissionPayrollManage,
		PermissionPayrollDisburse,
		PermissionPayrollTopUp,
		PermissionPayslipView,
		PermissionLedgerView,
		PermissionLedgerReverse,
		PermissionEmployeeView,
	},
	RoleEmployer: {
		PermissionPayrollView,
		PermissionPayrollManage,
		PermissionPayrollDisburse,
		PermissionPayrollTopUp,
		PermissionPayslipView,
		PermissionLedgerView,
		PermissionEmployeeView,
	},
	RoleEmployee: {
		// Employees only read, and only within their scope
		PermissionPayslipView,
		PermissionLedgerView,
		PermissionEmployeeView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
