package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `id, company_id, user_id, employee_code, full_name, grade_rank, account_id,
	employment_status, created_at, updated_at`

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

// Save inserts a directory record. The employee's ledger account must exist.
func (r *employeeRepository) Save(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return employee.Employee{}, fmt.Errorf("failed to generate employee id: %w", err)
		}
		e.ID = id.String()
	}
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}

	query := `
		INSERT INTO employees (id, company_id, user_id, employee_code, full_name, grade_rank, account_id, employment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		e.ID, e.CompanyID, e.UserID, e.EmployeeCode, e.FullName, e.GradeRank, e.AccountID, e.EmploymentStatus,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return created, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	if uuid.Validate(id) != nil {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}

	q := GetQuerier(ctx, r.db)
	e, err := scanEmployee(q.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return e, nil
}

func (r *employeeRepository) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return r.list(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE company_id = $1 AND employment_status = $2 ORDER BY employee_code`,
		companyID, employee.EmploymentStatusActive,
	)
}

func (r *employeeRepository) ListByCompanyID(ctx context.Context, companyID *string) ([]employee.Employee, error) {
	if companyID == nil {
		return r.list(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY company_id, employee_code`)
	}
	return r.list(ctx, `SELECT `+employeeColumns+` FROM employees WHERE company_id = $1 ORDER BY employee_code`, *companyID)
}

func (r *employeeRepository) GetByAccountIDs(ctx context.Context, accountIDs []string) ([]employee.Employee, error) {
	valid := validUUIDs(accountIDs)
	if len(valid) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+employeeColumns+` FROM employees WHERE account_id = ANY($1)`, valid)
}

func (r *employeeRepository) list(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.UserID, &e.EmployeeCode, &e.FullName, &e.GradeRank, &e.AccountID,
		&e.EmploymentStatus, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}
