package domain

import "errors"

// Определение бизнес-ошибок
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrEmptyRoster           = errors.New("roster must contain at least one employee")
	ErrDuplicateEmployeeID   = errors.New("roster contains duplicate employee ids")
	ErrInvalidGridPosition   = errors.New("grid position must be between 1 and 9")
	ErrSearchUnavailable     = errors.New("search index could not be built")
	ErrOrgServiceUnavailable = errors.New("org hierarchy service is unavailable")
)
