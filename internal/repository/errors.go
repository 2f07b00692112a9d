package repository

import (
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/instructor-eval-api/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateConstraint maps Postgres constraint violations onto typed
// domain errors. This is the single place where driver error codes are
// inspected; everything above the repository layer only sees *Error
// values. Non-constraint errors pass through unchanged.
func translateConstraint(err error, onDuplicate, onForeignKey *appErrors.Error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pgUniqueViolation:
		if onDuplicate != nil {
			return appErrors.Wrap(err, onDuplicate.Code, onDuplicate.Status, onDuplicate.Message)
		}
	case pgForeignKeyViolation:
		if onForeignKey != nil {
			return appErrors.Wrap(err, onForeignKey.Code, onForeignKey.Status, onForeignKey.Message)
		}
	}
	return err
}
