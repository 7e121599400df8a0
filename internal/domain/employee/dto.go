package employee

type EmployeeFilter struct {
	CompanyID  *string `json:"company_id,omitempty"`
	ActiveOnly bool    `json:"active_only"`
}

type EmployeeResponse struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	EmployeeCode     string `json:"employee_code"`
	FullName         string `json:"full_name"`
	GradeRank        int    `json:"grade_rank"`
	AccountID        string `json:"account_id"`
	EmploymentStatus string `json:"employment_status"`
}

func ToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:               e.ID,
		CompanyID:        e.CompanyID,
		EmployeeCode:     e.EmployeeCode,
		FullName:         e.FullName,
		GradeRank:        e.GradeRank,
		AccountID:        e.AccountID,
		EmploymentStatus: string(e.EmploymentStatus),
	}
}
