package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the admission paths care about.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeExclusionViolation  = "23P01"
)

// IsUniqueViolation reports whether err is a unique-constraint violation,
// e.g. a duplicate (user, event) registration racing the advisory check.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsExclusionViolation reports whether err is an exclusion-constraint
// violation: two concurrent admissions both passed the advisory overlap
// check and the store rejected the loser.
func IsExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeExclusionViolation
}

// IsForeignKeyViolation reports whether err is a foreign-key violation,
// e.g. inserting a space under a venue that does not exist.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
