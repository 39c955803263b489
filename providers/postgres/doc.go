// Package postgres implements [authflow.UserProvider] on PostgreSQL.
//
// The provider owns no schema migrations; it expects the users and
// auth_refresh_tokens tables described in [Schema] to exist. All queries use
// database/sql with the lib/pq driver.
package postgres
