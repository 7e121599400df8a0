package payroll

import "errors"

var (
	ErrBatchNotFound          = errors.New("payroll batch not found")
	ErrItemNotFound           = errors.New("payroll item not found")
	ErrBatchAlreadyInProgress = errors.New("a payroll batch is already in progress for this company")
	ErrFundingAccountMismatch = errors.New("funding account does not belong to the company")
	ErrTopUpBelowShortfall    = errors.New("top-up amount is below the shortfall")
	ErrTopUpExceedsLimit      = errors.New("top-up amount exceeds the configured maximum")
	ErrExecutedExceedsTotal   = errors.New("executed amount would exceed batch total")
	ErrFundingSourceMissing   = errors.New("no top-up funding source is configured")
	ErrBatchTotalOverflow     = errors.New("payroll batch total exceeds the supported maximum")
)
