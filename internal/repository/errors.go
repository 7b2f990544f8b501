// Package repository implements MySQL persistence for rooms, bookings
// and the supporting hotel records. Repositories translate driver
// errors into the sentinel values of package model so that handlers can
// distinguish "not found" or "duplicate" from genuine failures.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
	mysqlRowIsReferenced = 1451
	mysqlCheckConstraint = 3819
)

// mysqlCode returns the server error number wrapped in err, or 0.
func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool        { return mysqlCode(err) == mysqlDuplicateEntry }
func isMissingReference(err error) bool { return mysqlCode(err) == mysqlNoReferencedRow }
func isReferenced(err error) bool       { return mysqlCode(err) == mysqlRowIsReferenced }
func isCheckViolation(err error) bool   { return mysqlCode(err) == mysqlCheckConstraint }

// notFound maps sql.ErrNoRows onto the given sentinel and returns any
// other error unchanged.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// nullTime converts a nullable column into a pointer.
func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// nullUint converts a nullable id column into a pointer.
func nullUint(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

// timeArg turns an optional timestamp into a driver argument.
func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// uintArg turns an optional id into a driver argument.
func uintArg(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}
