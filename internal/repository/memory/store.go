// Package memory provides in-process implementations of the repositories,
// used by tests and by the API when STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
)

type txKey struct{}

// Store holds all in-memory state. Transactions are serialized by txMu and
// rolled back by restoring a snapshot; mu guards individual reads and writes.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	accounts     map[string]ledger.Account
	transactions []ledger.Transaction
	batches      map[string]payroll.PayrollBatch
	items        map[string]payroll.PayrollItem
	employees    map[string]employee.Employee
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]ledger.Account),
		batches:   make(map[string]payroll.PayrollBatch),
		items:     make(map[string]payroll.PayrollItem),
		employees: make(map[string]employee.Employee),
	}
}

type snapshot struct {
	accounts     map[string]ledger.Account
	transactions []ledger.Transaction
	batches      map[string]payroll.PayrollBatch
	items        map[string]payroll.PayrollItem
	employees    map[string]employee.Employee
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		accounts:     maps.Clone(s.accounts),
		transactions: append([]ledger.Transaction(nil), s.transactions...),
		batches:      maps.Clone(s.batches),
		items:        maps.Clone(s.items),
		employees:    maps.Clone(s.employees),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.transactions = snap.transactions
	s.batches = snap.batches
	s.items = snap.items
	s.employees = snap.employees
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// write runs fn under the data lock. Outside a transaction it also takes
// txMu so a concurrent rollback cannot discard the write.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}
