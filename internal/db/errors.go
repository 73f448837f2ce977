package db

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPoolTimeout is returned when no connection became available within the
// acquisition timeout.
var ErrPoolTimeout = errors.New("timed out waiting for a database connection")

type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindTransient failures may succeed if retried later.
	KindTransient
	// KindConstraint failures are integrity constraint violations.
	KindConstraint
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransient:
		return "transient"
	case KindConstraint:
		return "constraint"
	default:
		return "unknown"
	}
}

// Classify reports which kind of data-access failure err is.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrPoolTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return KindConstraint
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return KindTransient
		}
		return KindUnknown
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindTransient
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return KindTransient
	}

	return KindUnknown
}
