package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
)

type payrollRepositoryImpl struct {
	*Store
}

func NewPayrollRepository(store *Store) payroll.PayrollRepository {
	return &payrollRepositoryImpl{Store: store}
}

// LockCompany is a no-op: creation already runs under the store's
// transaction mutex.
func (r *payrollRepositoryImpl) LockCompany(ctx context.Context, companyID string) error {
	return nil
}

func (r *payrollRepositoryImpl) CreateBatch(ctx context.Context, batch payroll.PayrollBatch) (payroll.PayrollBatch, error) {
	now := time.Now()
	batch.CreatedAt = now
	batch.UpdatedAt = now

	err := r.write(ctx, func() error {
		if batch.Status.IsInProgress() {
			for _, b := range r.batches {
				if b.CompanyID == batch.CompanyID && b.Status.IsInProgress() {
					return payroll.ErrBatchAlreadyInProgress
				}
			}
		}
		r.batches[batch.ID] = batch
		return nil
	})
	return batch, err
}

func (r *payrollRepositoryImpl) GetBatchByID(ctx context.Context, id string) (payroll.PayrollBatch, error) {
	var batch payroll.PayrollBatch
	err := r.read(func() error {
		b, ok := r.batches[id]
		if !ok {
			return payroll.ErrBatchNotFound
		}
		batch = b
		return nil
	})
	return batch, err
}

func (r *payrollRepositoryImpl) GetBatchForUpdate(ctx context.Context, id string) (payroll.PayrollBatch, error) {
	return r.GetBatchByID(ctx, id)
}

func (r *payrollRepositoryImpl) GetInProgressBatch(ctx context.Context, companyID string) (payroll.PayrollBatch, error) {
	var batch payroll.PayrollBatch
	err := r.read(func() error {
		for _, b := range r.batches {
			if b.CompanyID == companyID && b.Status.IsInProgress() {
				batch = b
				return nil
			}
		}
		return payroll.ErrBatchNotFound
	})
	return batch, err
}

func (r *payrollRepositoryImpl) GetLastBatch(ctx context.Context, companyID string) (payroll.PayrollBatch, error) {
	batches, _, err := r.ListBatches(ctx, payroll.BatchFilter{CompanyID: &companyID, Limit: 1})
	if err != nil {
		return payroll.PayrollBatch{}, err
	}
	if len(batches) == 0 {
		return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
	}
	return batches[0], nil
}

func (r *payrollRepositoryImpl) ListBatches(ctx context.Context, filter payroll.BatchFilter) ([]payroll.PayrollBatch, int64, error) {
	var result []payroll.PayrollBatch
	err := r.read(func() error {
		for _, b := range r.batches {
			if filter.CompanyID != nil && b.CompanyID != *filter.CompanyID {
				continue
			}
			if filter.Status != nil && string(b.Status) != *filter.Status {
				continue
			}
			if filter.PayrollMonth != nil && b.PayrollMonth != *filter.PayrollMonth {
				continue
			}
			result = append(result, b)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	// IDs are UUIDv7, so they break creation-time ties in creation order.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			if filter.SortOrder == "asc" {
				return result[i].CreatedAt.Before(result[j].CreatedAt)
			}
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		if filter.SortOrder == "asc" {
			return result[i].ID < result[j].ID
		}
		return result[i].ID > result[j].ID
	})

	total := int64(len(result))
	offset := 0
	if filter.Page > 1 && filter.Limit > 0 {
		offset = (filter.Page - 1) * filter.Limit
	}
	return paginate(result, offset, filter.Limit), total, nil
}

func (r *payrollRepositoryImpl) UpdateBatchStatus(ctx context.Context, id string, status payroll.BatchStatus, processedAt *time.Time) error {
	return r.write(ctx, func() error {
		b, ok := r.batches[id]
		if !ok {
			return payroll.ErrBatchNotFound
		}
		if status.IsInProgress() && !b.Status.IsInProgress() {
			for _, other := range r.batches {
				if other.ID != id && other.CompanyID == b.CompanyID && other.Status.IsInProgress() {
					return payroll.ErrBatchAlreadyInProgress
				}
			}
		}
		b.Status = status
		if processedAt != nil {
			b.ProcessedAt = processedAt
		}
		b.UpdatedAt = time.Now()
		r.batches[id] = b
		return nil
	})
}

func (r *payrollRepositoryImpl) AddExecutedAmount(ctx context.Context, id string, amount int64) (payroll.PayrollBatch, error) {
	var batch payroll.PayrollBatch
	err := r.write(ctx, func() error {
		b, ok := r.batches[id]
		if !ok {
			return payroll.ErrBatchNotFound
		}
		if b.ExecutedAmount+amount > b.TotalAmount {
			return payroll.ErrExecutedExceedsTotal
		}
		b.ExecutedAmount += amount
		b.UpdatedAt = time.Now()
		r.batches[id] = b
		batch = b
		return nil
	})
	return batch, err
}

func (r *payrollRepositoryImpl) CreateItems(ctx context.Context, items []payroll.PayrollItem) error {
	now := time.Now()
	return r.write(ctx, func() error {
		for _, item := range items {
			if _, ok := r.batches[item.BatchID]; !ok {
				return payroll.ErrBatchNotFound
			}
		}
		for _, item := range items {
			item.CreatedAt = now
			item.UpdatedAt = now
			r.items[item.ID] = item
		}
		return nil
	})
}

func (r *payrollRepositoryImpl) GetItemByID(ctx context.Context, id string) (payroll.PayrollItem, error) {
	var item payroll.PayrollItem
	err := r.read(func() error {
		i, ok := r.items[id]
		if !ok {
			return payroll.ErrItemNotFound
		}
		item = i
		return nil
	})
	return item, err
}

func (r *payrollRepositoryImpl) GetItemsByBatchID(ctx context.Context, batchID string) ([]payroll.PayrollItem, error) {
	var items []payroll.PayrollItem
	err := r.read(func() error {
		for _, item := range r.items {
			if item.BatchID == batchID {
				items = append(items, item)
			}
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	return items, err
}

func (r *payrollRepositoryImpl) MarkItemPaid(ctx context.Context, id string, transactionID *string, paidAt time.Time) error {
	return r.updateItem(ctx, id, func(item *payroll.PayrollItem) {
		item.Status = payroll.ItemStatusPaid
		item.TransactionID = transactionID
		item.PaidAt = &paidAt
		item.FailureReason = nil
	})
}

func (r *payrollRepositoryImpl) MarkItemFailed(ctx context.Context, id string, reason string) error {
	return r.updateItem(ctx, id, func(item *payroll.PayrollItem) {
		item.Status = payroll.ItemStatusFailed
		item.FailureReason = &reason
	})
}

func (r *payrollRepositoryImpl) updateItem(ctx context.Context, id string, apply func(item *payroll.PayrollItem)) error {
	return r.write(ctx, func() error {
		item, ok := r.items[id]
		if !ok {
			return payroll.ErrItemNotFound
		}
		apply(&item)
		item.Attempts++
		item.UpdatedAt = time.Now()
		r.items[id] = item
		return nil
	})
}
