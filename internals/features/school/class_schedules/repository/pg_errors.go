package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// classifyGormError: record not found → ErrNotFound, gangguan koneksi/timeout → ErrStoreUnavailable,
// sisanya (constraint violation dsb) dikembalikan apa adanya.
func classifyGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsUnavailableError(err):
		return Unavailable(err)
	}
	return err
}

// IsUnavailableError: error yang layak di-retry karena infrastruktur, bukan karena data.
func IsUnavailableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isUnavailableSQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isUnavailableSQLState(string(pqErr.Code))
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUnavailableSQLState(code string) bool {
	if strings.HasPrefix(code, "08") { // connection_exception
		return true
	}
	switch code {
	case "57014", // query_canceled (statement_timeout)
		"57P01", "57P02", "57P03", // admin/crash shutdown, cannot_connect_now
		"53300", // too_many_connections
		"40001", // serialization_failure
		"40P01": // deadlock_detected
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
