package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation")        // 400
	ErrInvalidReference = errors.New("invalid reference") // 400
	ErrUnauthorized     = errors.New("unauthorized")      // 401
	ErrNotFound         = errors.New("not found")         // 404
	ErrConflict         = errors.New("conflict")          // 409
	ErrStorage          = errors.New("storage failure")   // 500
	ErrUnavailable      = errors.New("unavailable")       // 503
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
