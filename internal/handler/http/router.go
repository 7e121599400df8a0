package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/cmlabs-hris/payroll-ledger/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, payrollHandler PayrollHandler, ledgerHandler LedgerHandler, employeeHandler EmployeeHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  opts.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/batches", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.ListBatches)
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/last", payrollHandler.GetLastBatch)
					r.With(middleware.RequirePermission(user.PermissionPayrollManage)).Post("/", payrollHandler.CreateBatch)

					r.Route("/{id}", func(r chi.Router) {
						r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.GetBatch)
						r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/funds", payrollHandler.CheckFunds)

						r.Group(func(r chi.Router) {
							r.Use(middleware.RequirePermission(user.PermissionPayrollDisburse))
							r.Post("/process", payrollHandler.Process)
							r.Post("/execute", payrollHandler.Execute)
						})

						r.With(middleware.RequirePermission(user.PermissionPayrollTopUp)).Post("/top-up", payrollHandler.TopUp)
					})
				})

				r.With(middleware.RequirePermission(user.PermissionPayslipView)).Get("/items/{id}/payslip", payrollHandler.GetPayslip)
				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/grades/salary", payrollHandler.SalaryTable)
			})

			r.Route("/ledger", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionLedgerView))
				r.Get("/transactions", ledgerHandler.ListTransactions)
				r.Get("/accounts/{id}/balance", ledgerHandler.GetBalance)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(user.RoleAdmin))
					r.Use(middleware.RequirePermission(user.PermissionLedgerReverse))
					r.Post("/transactions/{id}/reverse", ledgerHandler.ReverseTransaction)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionEmployeeView))
				r.Get("/", employeeHandler.ListEmployees)
				r.Get("/{id}", employeeHandler.GetEmployee)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
	return r
}
