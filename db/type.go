package db

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrDuplicateEntryCode = 1062

	// ErrNotFound is returned when a specific module, operator or key has no match.
	ErrNotFound = errors.New("record not found")
	// ErrDataNotYetAvailable is returned when no module update has been committed yet.
	ErrDataNotYetAvailable = errors.New("el meta is not available, data has not been written yet")
)

func MysqlErrCode(err error) int {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return 0
	}
	return int(mysqlErr.Number)
}

func IsDuplicateEntry(err error) bool {
	return MysqlErrCode(err) == ErrDuplicateEntryCode
}
