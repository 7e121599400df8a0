package employee

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrUnauthorized       = errors.New("unauthorized to access this employee")
	ErrEmployeeCodeExists = errors.New("employee code already exists in this company")
)
