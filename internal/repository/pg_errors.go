package repository

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"
)

// IsUniqueViolation reports whether the error is a Postgres unique or
// exclusion constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation || pqErr.Code == pgExclusionViolation
	}
	return false
}

// IsCheckViolation reports whether the error is a Postgres check
// constraint failure.
func IsCheckViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgCheckViolation
	}
	return false
}
