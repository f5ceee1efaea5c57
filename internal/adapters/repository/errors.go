package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapPgError turns constraint violations into domain errors. It understands
// both the pgx and the lib/pq drivers.
func mapPgError(err error, onUnique error) error {
	if err == nil {
		return nil
	}

	var code string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code = pgErr.Code
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	default:
		return err
	}

	switch code {
	case pgUniqueViolation:
		if onUnique != nil {
			return onUnique
		}
	case pgForeignKeyViolation:
		return domain.ErrMissingRef
	}
	return err
}
