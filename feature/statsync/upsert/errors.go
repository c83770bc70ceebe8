package upsert

import (
	"errors"
	"strings"

	"player-statistics/feature/statsync/source"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// MySQL and MariaDB server errors caused by the written values.
var mysqlDataErrors = map[uint16]struct{}{
	1048: {}, // column cannot be null
	1062: {}, // duplicate entry
	1264: {}, // out of range value
	1265: {}, // data truncated
	1292: {}, // truncated incorrect value
	1366: {}, // incorrect string value
	1406: {}, // data too long
	1451: {}, // foreign key, parent row
	1452: {}, // foreign key, child row
	1644: {}, // signal raised by a trigger
	3819: {}, // check constraint
}

// Permanent reports whether err fails the same way on every retry of the
// same record: an unreadable file, or the store rejecting its values.
// Cancellations, timeouts and connection errors are not permanent.
func Permanent(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, source.ErrUnreadable),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint, sqlite3.ErrTooBig, sqlite3.ErrMismatch, sqlite3.ErrRange:
			return true
		}
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		_, ok := mysqlDataErrors[myErr.Number]
		return ok
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 22 is data exception, class 23 integrity constraint violation.
		return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}
