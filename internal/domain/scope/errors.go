package scope

import "errors"

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrMissingCompany  = errors.New("actor has no company")
	ErrMissingEmployee = errors.New("actor has no employee record")
	ErrForbidden       = errors.New("outside of the actor's visibility scope")
)
