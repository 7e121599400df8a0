package user

import "errors"

var ErrInsufficientPermissions = errors.New("insufficient permissions")
