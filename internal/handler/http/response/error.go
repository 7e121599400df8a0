package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/master/grade"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Actor / scope errors
	case errors.Is(err, scope.ErrUnknownRole),
		errors.Is(err, scope.ErrMissingCompany),
		errors.Is(err, scope.ErrMissingEmployee):
		Unauthorized(w, err.Error())
	case errors.Is(err, scope.ErrForbidden),
		errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Grade errors
	case errors.Is(err, grade.ErrInvalidGrade):
		BadRequestWithCode(w, "INVALID_GRADE", err.Error(), nil)
	case errors.Is(err, grade.ErrNegativeBaseSalary),
		errors.Is(err, grade.ErrBaseSalaryTooLarge):
		BadRequest(w, err.Error(), nil)

	// Ledger errors
	case errors.Is(err, ledger.ErrInsufficientFunds):
		BadRequestWithCode(w, "INSUFFICIENT_FUNDS", "Insufficient funds", nil)
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, ledger.ErrCannotReverseReversal):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, ledger.ErrAlreadyReversed):
		Conflict(w, "Transaction already reversed")
	case errors.Is(err, ledger.ErrAccountNotFound):
		NotFound(w, "Account not found")
	case errors.Is(err, ledger.ErrTransactionNotFound):
		NotFound(w, "Transaction not found")

	// Payroll errors
	case errors.Is(err, payroll.ErrBatchAlreadyInProgress):
		Conflict(w, "A payroll batch is already in progress for this company")
	case errors.Is(err, payroll.ErrFundingAccountMismatch),
		errors.Is(err, payroll.ErrTopUpBelowShortfall),
		errors.Is(err, payroll.ErrTopUpExceedsLimit),
		errors.Is(err, payroll.ErrBatchTotalOverflow):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrBatchNotFound):
		NotFound(w, "Payroll batch not found")
	case errors.Is(err, payroll.ErrItemNotFound):
		NotFound(w, "Payroll item not found")
	case errors.Is(err, payroll.ErrFundingSourceMissing):
		ServiceUnavailable(w, "Top-up funding source is not configured")

	// Employee errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
