package dbutil

import "github.com/jmoiron/sqlx"

// Rebind converts gendry's ?-style placeholders into the $n form lib/pq expects.
func Rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}
