package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key
// violation (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a unique constraint violation.
// The seating engine and admission service rely on this to detect a
// lost race for a seat or a token and retry instead of failing.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
