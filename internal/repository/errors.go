package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Sentinel errors reported by transactional writes.
var (
	ErrCourseMissing     = errors.New("referenced course does not exist")
	ErrMembershipMissing = errors.New("author is not a member of the group")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var queryTimeout = 10 * time.Second

// SetQueryTimeout bounds every storage call made through this package.
func SetQueryTimeout(d time.Duration) {
	if d > 0 {
		queryTimeout = d
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key failure.
func IsForeignKeyViolation(err error) bool {
	return hasPQCode(err, pqForeignKeyViolation)
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
