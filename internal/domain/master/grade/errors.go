package grade

import "errors"

var (
	ErrInvalidGrade       = errors.New("grade rank must be between 1 and 6")
	ErrNegativeBaseSalary = errors.New("base salary must be non-negative")
	ErrBaseSalaryTooLarge = errors.New("base salary exceeds the supported maximum")
)
