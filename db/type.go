package db

import (
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrDuplicateEntryCode = 1062
)

func MysqlErrCode(err error) int {
	mysqlErr, ok := err.(*mysql.MySQLError)
	if !ok {
		return 0
	}
	return int(mysqlErr.Number)
}

// IsDuplicateEntry reports a unique key violation on mysql or sqlite.
func IsDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	if MysqlErrCode(err) == ErrDuplicateEntryCode {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
