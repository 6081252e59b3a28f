package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound reports that the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateMembership reports that the user already belongs to the classroom.
	ErrDuplicateMembership = errors.New("membership already exists")
	// ErrSessionBusy reports that the store session could not be acquired in time.
	ErrSessionBusy = errors.New("store session busy")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
