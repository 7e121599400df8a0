package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const batchColumns = `id, company_id, funding_account_id, payroll_month, base_salary, status,
	total_amount, executed_amount, created_by, created_at, updated_at, processed_at`

const itemColumns = `id, batch_id, seq, employee_id, employee_account_id, grade_rank,
	basic_salary, hra, medical, gross_salary, net_amount, status, failure_reason,
	transaction_id, attempts, paid_at, created_at, updated_at`

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func (r *payrollRepository) LockCompany(ctx context.Context, companyID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "payroll_batch:"+companyID); err != nil {
		return fmt.Errorf("failed to lock company: %w", err)
	}
	return nil
}

// ========== BATCHES ==========

func (r *payrollRepository) CreateBatch(ctx context.Context, batch payroll.PayrollBatch) (payroll.PayrollBatch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_batches (
			id, company_id, funding_account_id, payroll_month, base_salary, status,
			total_amount, executed_amount, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + batchColumns

	created, err := scanBatch(q.QueryRow(ctx, query,
		batch.ID, batch.CompanyID, batch.FundingAccountID, batch.PayrollMonth, batch.BaseSalary, batch.Status,
		batch.TotalAmount, batch.ExecutedAmount, batch.CreatedBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.PayrollBatch{}, payroll.ErrBatchAlreadyInProgress
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to create payroll batch: %w", err)
	}
	return created, nil
}

func (r *payrollRepository) GetBatchByID(ctx context.Context, id string) (payroll.PayrollBatch, error) {
	return r.getBatch(ctx, `SELECT `+batchColumns+` FROM payroll_batches WHERE id = $1`, id)
}

func (r *payrollRepository) GetBatchForUpdate(ctx context.Context, id string) (payroll.PayrollBatch, error) {
	return r.getBatch(ctx, `SELECT `+batchColumns+` FROM payroll_batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *payrollRepository) getBatch(ctx context.Context, query, id string) (payroll.PayrollBatch, error) {
	if uuid.Validate(id) != nil {
		return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
	}

	q := GetQuerier(ctx, r.db)
	b, err := scanBatch(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to get payroll batch: %w", err)
	}
	return b, nil
}

func (r *payrollRepository) GetInProgressBatch(ctx context.Context, companyID string) (payroll.PayrollBatch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE company_id = $1 AND status IN ($2, $3)
		LIMIT 1`

	b, err := scanBatch(q.QueryRow(ctx, query, companyID, payroll.BatchStatusPending, payroll.BatchStatusProcessing))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to get in-progress batch: %w", err)
	}
	return b, nil
}

func (r *payrollRepository) GetLastBatch(ctx context.Context, companyID string) (payroll.PayrollBatch, error) {
	batches, _, err := r.ListBatches(ctx, payroll.BatchFilter{CompanyID: &companyID, Page: 1, Limit: 1})
	if err != nil {
		return payroll.PayrollBatch{}, err
	}
	if len(batches) == 0 {
		return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
	}
	return batches[0], nil
}

func (r *payrollRepository) ListBatches(ctx context.Context, filter payroll.BatchFilter) ([]payroll.PayrollBatch, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM payroll_batches WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.CompanyID != nil {
		baseQuery += fmt.Sprintf(" AND company_id = $%d", argIdx)
		args = append(args, *filter.CompanyID)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.PayrollMonth != nil {
		baseQuery += fmt.Sprintf(" AND payroll_month = $%d", argIdx)
		args = append(args, *filter.PayrollMonth)
		argIdx++
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll batches: %w", err)
	}

	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	selectQuery := fmt.Sprintf("SELECT %s%s ORDER BY created_at %s, id %s", batchColumns, baseQuery, sortOrder, sortOrder)

	// Pagination
	if filter.Limit > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		selectQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll batches: %w", err)
	}
	defer rows.Close()

	var batches []payroll.PayrollBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll batches: %w", err)
	}

	return batches, totalCount, nil
}

func (r *payrollRepository) UpdateBatchStatus(ctx context.Context, id string, status payroll.BatchStatus, processedAt *time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_batches
		SET status = $2, processed_at = COALESCE($3, processed_at), updated_at = NOW()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, status, processedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.ErrBatchAlreadyInProgress
		}
		return fmt.Errorf("failed to update payroll batch status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrBatchNotFound
	}
	return nil
}

func (r *payrollRepository) AddExecutedAmount(ctx context.Context, id string, amount int64) (payroll.PayrollBatch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_batches
		SET executed_amount = executed_amount + $2, updated_at = NOW()
		WHERE id = $1 AND executed_amount + $2 <= total_amount
		RETURNING ` + batchColumns

	b, err := scanBatch(q.QueryRow(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetBatchByID(ctx, id); getErr != nil {
				return payroll.PayrollBatch{}, getErr
			}
			return payroll.PayrollBatch{}, payroll.ErrExecutedExceedsTotal
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to add executed amount: %w", err)
	}
	return b, nil
}

func scanBatch(row pgx.Row) (payroll.PayrollBatch, error) {
	var b payroll.PayrollBatch
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.FundingAccountID, &b.PayrollMonth, &b.BaseSalary, &b.Status,
		&b.TotalAmount, &b.ExecutedAmount, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt, &b.ProcessedAt,
	)
	return b, err
}

// ========== ITEMS ==========

func (r *payrollRepository) CreateItems(ctx context.Context, items []payroll.PayrollItem) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_items (
			id, batch_id, seq, employee_id, employee_account_id, grade_rank,
			basic_salary, hra, medical, gross_salary, net_amount, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, it := range items {
		_, err := q.Exec(ctx, query,
			it.ID, it.BatchID, it.Seq, it.EmployeeID, it.EmployeeAccountID, it.GradeRank,
			it.BasicSalary, it.HRA, it.Medical, it.GrossSalary, it.NetAmount, it.Status,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == sqlStateForeignKeyViolation {
				return payroll.ErrBatchNotFound
			}
			return fmt.Errorf("failed to create payroll item %d: %w", it.Seq, err)
		}
	}
	return nil
}

func (r *payrollRepository) GetItemByID(ctx context.Context, id string) (payroll.PayrollItem, error) {
	if uuid.Validate(id) != nil {
		return payroll.PayrollItem{}, payroll.ErrItemNotFound
	}

	q := GetQuerier(ctx, r.db)
	it, err := scanItem(q.QueryRow(ctx, `SELECT `+itemColumns+` FROM payroll_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollItem{}, payroll.ErrItemNotFound
		}
		return payroll.PayrollItem{}, fmt.Errorf("failed to get payroll item: %w", err)
	}
	return it, nil
}

func (r *payrollRepository) GetItemsByBatchID(ctx context.Context, batchID string) ([]payroll.PayrollItem, error) {
	if uuid.Validate(batchID) != nil {
		return nil, nil
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM payroll_items WHERE batch_id = $1 ORDER BY seq`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll items: %w", err)
	}
	defer rows.Close()

	var items []payroll.PayrollItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *payrollRepository) MarkItemPaid(ctx context.Context, id string, transactionID *string, paidAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_items
		SET status = $2, transaction_id = $3, paid_at = $4, failure_reason = NULL,
			attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, payroll.ItemStatusPaid, transactionID, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark payroll item paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrItemNotFound
	}
	return nil
}

func (r *payrollRepository) MarkItemFailed(ctx context.Context, id string, reason string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_items
		SET status = $2, failure_reason = $3, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, payroll.ItemStatusFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark payroll item failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrItemNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (payroll.PayrollItem, error) {
	var it payroll.PayrollItem
	err := row.Scan(
		&it.ID, &it.BatchID, &it.Seq, &it.EmployeeID, &it.EmployeeAccountID, &it.GradeRank,
		&it.BasicSalary, &it.HRA, &it.Medical, &it.GrossSalary, &it.NetAmount, &it.Status, &it.FailureReason,
		&it.TransactionID, &it.Attempts, &it.PaidAt, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}
