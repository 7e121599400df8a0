package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(svc jwt.Service, mws ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFromContext(r.Context())
		w.Header().Set("X-Role", string(actor.Role))
		w.WriteHeader(http.StatusNoContent)
	})
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return jwtauth.Verifier(svc.JWTAuth())(AuthRequired(h))
}

func bearer(t *testing.T, svc jwt.Service, actor scope.Actor) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("secret", "5m")
	handler := protected(svc)

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := jwt.NewJWTService("other-secret", "5m")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearer(t, other, scope.Actor{Role: user.RoleAdmin}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token stores actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearer(t, svc, scope.Actor{Role: user.RoleAdmin, UserID: "u1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "admin", rec.Header().Get("X-Role"))
	})
}

func TestRequireRoleAndPermission(t *testing.T) {
	svc := jwt.NewJWTService("secret", "5m")
	company, employeeID, rank := "acme", "emp-1", 5
	employee := scope.Actor{Role: user.RoleEmployee, EmployeeID: &employeeID, CompanyID: &company, GradeRank: &rank}
	employer := scope.Actor{Role: user.RoleEmployer, CompanyID: &company}

	cases := []struct {
		name  string
		mw    func(http.Handler) http.Handler
		actor scope.Actor
		want  int
	}{
		{"employer may manage payroll", RequirePermission(user.PermissionPayrollManage), employer, http.StatusNoContent},
		{"employee may not manage payroll", RequirePermission(user.PermissionPayrollManage), employee, http.StatusForbidden},
		{"employee may view ledger", RequirePermission(user.PermissionLedgerView), employee, http.StatusNoContent},
		{"reversal is admin only", RequireRole(user.RoleAdmin), employer, http.StatusForbidden},
		{"admin passes role check", RequireRole(user.RoleAdmin), scope.Actor{Role: user.RoleAdmin}, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", bearer(t, svc, tc.actor))
			rec := httptest.NewRecorder()
			protected(svc, tc.mw).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
