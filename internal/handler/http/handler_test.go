package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/events"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-ledger/internal/repository/memory"
	employeeService "github.com/cmlabs-hris/payroll-ledger/internal/service/employee"
	ledgerService "github.com/cmlabs-hris/payroll-ledger/internal/service/ledger"
	payrollService "github.com/cmlabs-hris/payroll-ledger/internal/service/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestAccessExp = "1h"
	handlerTestCompany   = "acme"
	handlerTestFunding   = "acme-payroll"
	handlerTestBank      = "bank"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		TotalItems int64 `json:"total_items"`
	} `json:"meta"`
}

type testServer struct {
	handler http.Handler
	jwt     jwt.Service
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	ledgerRepo := memory.NewLedgerRepository(store)
	payrollRepo := memory.NewPayrollRepository(store)
	employeeRepo := memory.NewEmployeeRepository(store)

	for _, a := range []ledger.Account{
		{ID: handlerTestFunding, OwnerType: ledger.OwnerTypeCompany, OwnerID: handlerTestCompany, CompanyID: handlerTestCompany},
		{ID: handlerTestBank, OwnerType: ledger.OwnerTypeExternal, OwnerID: "bank", OverdraftLimit: 1 << 40},
	} {
		_, err := ledgerRepo.CreateAccount(ctx, a)
		require.NoError(t, err)
	}
	for i, rank := range []int{6, 5} {
		id := fmt.Sprintf("emp-%d", i+1)
		_, err := ledgerRepo.CreateAccount(ctx, ledger.Account{
			ID: id + "-acc", OwnerType: ledger.OwnerTypeEmployee, OwnerID: id, CompanyID: handlerTestCompany,
		})
		require.NoError(t, err)
		_, err = employeeRepo.Save(ctx, employee.Employee{
			ID: id, CompanyID: handlerTestCompany, EmployeeCode: fmt.Sprintf("acme-%04d", i+1),
			FullName: "Employee " + id, GradeRank: rank, AccountID: id + "-acc",
		})
		require.NoError(t, err)
	}

	ledgerSvc := ledgerService.NewLedgerService(store, ledgerRepo, employeeRepo, logger)
	payrollSvc := payrollService.NewPayrollService(store, payrollRepo, employeeRepo, ledgerRepo, ledgerSvc, events.Noop{}, logger, payrollService.Config{
		TopUpStep:              payroll.DefaultTopUpStep,
		MaxTopUp:               10_000_000,
		FundingSourceAccountID: handlerTestBank,
	})
	employeeSvc := employeeService.NewEmployeeService(employeeRepo)

	jwtSvc := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	router := NewRouter(RouterOptions{AllowedOrigins: []string{"http://localhost:3000"}}, jwtSvc,
		NewPayrollHandler(payrollSvc), NewLedgerHandler(ledgerSvc), NewEmployeeHandler(employeeSvc))

	return testServer{handler: router, jwt: jwtSvc}
}

func (s testServer) do(t *testing.T, actor *scope.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, _, err := s.jwt.GenerateAccessToken(*actor)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) (testEnvelope, T) {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var data T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		require.NoError(t, json.Unmarshal(env.Data, &data))
	}
	return env, data
}

func employerActor() *scope.Actor {
	company := handlerTestCompany
	return &scope.Actor{Role: user.RoleEmployer, UserID: "owner", CompanyID: &company}
}

func adminActor() *scope.Actor {
	return &scope.Actor{Role: user.RoleAdmin, UserID: "root"}
}

func employeeActor(id string, rank int) *scope.Actor {
	company := handlerTestCompany
	return &scope.Actor{Role: user.RoleEmployee, UserID: "user-" + id, EmployeeID: &id, CompanyID: &company, GradeRank: &rank}
}

// runPayroll creates a batch, tops up the shortfall and returns the paid batch.
func runPayroll(t *testing.T, s testServer) payroll.BatchDetailResponse {
	t.Helper()

	rec := s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches", map[string]any{
		"funding_account_id": handlerTestFunding,
		"payroll_month":      "2025-01",
		"base_salary":        25000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, created := decode[payroll.BatchDetailResponse](t, rec)
	require.Len(t, created.Items, 2)
	assert.Equal(t, int64(33750+40500), created.TotalAmount)

	rec = s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches/"+created.ID+"/execute", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, executed := decode[payroll.ExecuteResult](t, rec)
	assert.Nil(t, executed.Process)
	assert.False(t, executed.Funds.Sufficient)
	assert.Equal(t, int64(75000), executed.Funds.SuggestedTopUp)

	rec = s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches/"+created.ID+"/top-up", map[string]any{
		"amount": executed.Funds.SuggestedTopUp,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, topUp := decode[payroll.TopUpResult](t, rec)
	require.NotNil(t, topUp.Process)
	assert.Equal(t, string(payroll.BatchStatusCompleted), topUp.Process.Status)

	rec = s.do(t, employerActor(), http.MethodGet, "/api/v1/payroll/batches/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, detail := decode[payroll.BatchDetailResponse](t, rec)
	assert.Equal(t, 2, detail.PaidCount)
	return detail
}

func TestPayrollHandler_DisbursementFlow(t *testing.T) {
	s := newTestServer(t)
	batch := runPayroll(t, s)

	t.Run("funds gate after completion", func(t *testing.T) {
		rec := s.do(t, employerActor(), http.MethodGet, "/api/v1/payroll/batches/"+batch.ID+"/funds", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		_, funds := decode[payroll.FundsCheck](t, rec)
		assert.True(t, funds.Sufficient)
		assert.Zero(t, funds.Remaining)
	})

	t.Run("last batch and listing", func(t *testing.T) {
		rec := s.do(t, employerActor(), http.MethodGet, "/api/v1/payroll/batches/last", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		_, last := decode[payroll.BatchResponse](t, rec)
		assert.Equal(t, batch.ID, last.ID)

		rec = s.do(t, adminActor(), http.MethodGet, "/api/v1/payroll/batches?company_id=acme&limit=5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		env, list := decode[[]payroll.BatchResponse](t, rec)
		assert.Len(t, list, 1)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.TotalItems)
	})

	t.Run("process again pays nothing", func(t *testing.T) {
		rec := s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches/"+batch.ID+"/process", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		_, result := decode[payroll.ProcessResult](t, rec)
		assert.Zero(t, result.PaidThisRun)
		assert.Equal(t, 2, result.SuccessCount)
	})
}

func TestPayrollHandler_Errors(t *testing.T) {
	s := newTestServer(t)

	t.Run("no token", func(t *testing.T) {
		rec := s.do(t, nil, http.MethodGet, "/api/v1/payroll/batches", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("employee cannot create batches", func(t *testing.T) {
		rec := s.do(t, employeeActor("emp-1", 6), http.MethodPost, "/api/v1/payroll/batches", map[string]any{})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		rec := s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches", map[string]any{
			"funding_account_id": handlerTestFunding,
			"payroll_month":      "January",
			"base_salary":        25000,
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env, _ := decode[any](t, rec)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "payroll_month")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/batches", bytes.NewBufferString("{"))
		token, _, err := s.jwt.GenerateAccessToken(*employerActor())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("second in-progress batch conflicts", func(t *testing.T) {
		body := map[string]any{"funding_account_id": handlerTestFunding, "payroll_month": "2025-02", "base_salary": 1}
		require.Equal(t, http.StatusCreated, s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches", body).Code)
		assert.Equal(t, http.StatusConflict, s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches", body).Code)
	})

	t.Run("unknown batch", func(t *testing.T) {
		rec := s.do(t, employerActor(), http.MethodGet, "/api/v1/payroll/batches/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-positive top-up", func(t *testing.T) {
		rec := s.do(t, employerActor(), http.MethodPost, "/api/v1/payroll/batches/missing/top-up", map[string]any{"amount": 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("salary table", func(t *testing.T) {
		rec := s.do(t, employerActor(), http.MethodGet, "/api/v1/payroll/grades/salary?base_salary=25000", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		_, table := decode[[]map[string]int64](t, rec)
		require.Len(t, table, 6)
		assert.Equal(t, int64(67500), table[0]["gross"])

		rec = s.do(t, employerActor(), http.MethodGet, "/api/v1/payroll/grades/salary?base_salary=-5", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPayslipHandler_Scope(t *testing.T) {
	s := newTestServer(t)
	batch := runPayroll(t, s)
	juniorItem, seniorItem := batch.Items[0].ID, batch.Items[1].ID

	rec := s.do(t, employeeActor("emp-2", 5), http.MethodGet, "/api/v1/payroll/items/"+juniorItem+"/payslip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-2025-01-")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = s.do(t, employeeActor("emp-1", 6), http.MethodGet, "/api/v1/payroll/items/"+seniorItem+"/payslip", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLedgerHandler_ScopedReads(t *testing.T) {
	s := newTestServer(t)
	runPayroll(t, s)

	cases := []struct {
		name  string
		actor *scope.Actor
		want  int
	}{
		{"employer sees company traffic", employerActor(), 3},
		{"senior employee sees self and downstream", employeeActor("emp-2", 5), 2},
		{"junior employee sees self only", employeeActor("emp-1", 6), 1},
		{"admin sees all", adminActor(), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.actor, http.MethodGet, "/api/v1/ledger/transactions", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			_, txs := decode[[]ledger.TransactionResponse](t, rec)
			assert.Len(t, txs, tc.want)
		})
	}

	t.Run("bad query parameters", func(t *testing.T) {
		rec := s.do(t, adminActor(), http.MethodGet, "/api/v1/ledger/transactions?from=yesterday&limit=-1", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env, _ := decode[any](t, rec)
		assert.Contains(t, env.Error.Details, "from")
		assert.Contains(t, env.Error.Details, "limit")
	})

	t.Run("balance visibility", func(t *testing.T) {
		rec := s.do(t, employeeActor("emp-1", 6), http.MethodGet, "/api/v1/ledger/accounts/emp-1-acc/balance", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		_, balance := decode[ledger.BalanceResponse](t, rec)
		assert.Equal(t, int64(33750), balance.CurrentBalance)

		rec = s.do(t, employeeActor("emp-1", 6), http.MethodGet, "/api/v1/ledger/accounts/"+handlerTestFunding+"/balance", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLedgerHandler_Reverse(t *testing.T) {
	s := newTestServer(t)
	runPayroll(t, s)

	account := "emp-1-acc"
	rec := s.do(t, adminActor(), http.MethodGet, "/api/v1/ledger/transactions?account_id="+account, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, txs := decode[[]ledger.TransactionResponse](t, rec)
	require.Len(t, txs, 1)
	path := "/api/v1/ledger/transactions/" + txs[0].ID + "/reverse"
	body := map[string]any{"reason": "paid twice"}

	assert.Equal(t, http.StatusForbidden, s.do(t, employerActor(), http.MethodPost, path, body).Code)

	rec = s.do(t, adminActor(), http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, reversal := decode[ledger.TransactionResponse](t, rec)
	assert.Equal(t, string(ledger.TransactionTypeReversal), reversal.Type)
	assert.Equal(t, txs[0].ID, *reversal.ReversalOf)

	assert.Equal(t, http.StatusConflict, s.do(t, adminActor(), http.MethodPost, path, body).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(t, adminActor(), http.MethodPost, path, map[string]any{}).Code)
}

func TestEmployeeHandler_Scope(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, employeeActor("emp-2", 5), http.MethodGet, "/api/v1/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, list := decode[[]employee.EmployeeResponse](t, rec)
	assert.Len(t, list, 2)

	rec = s.do(t, employeeActor("emp-1", 6), http.MethodGet, "/api/v1/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, list = decode[[]employee.EmployeeResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "emp-1", list[0].ID)

	assert.Equal(t, http.StatusForbidden, s.do(t, employeeActor("emp-1", 6), http.MethodGet, "/api/v1/employees/emp-2", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, employerActor(), http.MethodGet, "/api/v1/employees/emp-2", nil).Code)
}
