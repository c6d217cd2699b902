package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrIntegrity    = errors.New("integrity violation")
	ErrMigration    = errors.New("migration failed")
)
