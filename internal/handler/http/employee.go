package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-ledger/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type EmployeeHandler interface {
	ListEmployees(w http.ResponseWriter, r *http.Request)
	GetEmployee(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	employeeService employee.EmployeeService
}

func NewEmployeeHandler(employeeService employee.EmployeeService) EmployeeHandler {
	return &employeeHandlerImpl{employeeService: employeeService}
}

func (h *employeeHandlerImpl) ListEmployees(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	filter := employee.EmployeeFilter{
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}
	if companyID := r.URL.Query().Get("company_id"); companyID != "" {
		filter.CompanyID = &companyID
	}

	result, err := h.employeeService.ListVisible(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *employeeHandlerImpl) GetEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.employeeService.GetVisible(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// actorFrom reads the caller identity set by middleware.AuthRequired.
func actorFrom(w http.ResponseWriter, r *http.Request) (scope.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
	}
	return actor, ok
}
