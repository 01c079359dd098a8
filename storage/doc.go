// Package storage provides the task persistence interface.
//
// # Overview
//
// The Store interface maps the four task operations onto parameterized SQL
// statements against a single table:
//
//	task (id, name, iscompleted)
//
// Backends:
//   - postgres: PostgreSQL through github.com/jackc/pgx/v5
//   - sqlite: SQLite through github.com/mattn/go-sqlite3
//
// # Connections
//
// Every operation opens its own connection and closes it before returning.
// There is no pool. A connection failure is logged by the backend and returned
// wrapped as errors.ErrStorageUnavailable, classified Transient. Statement
// errors are Transient only when the driver reports them as connection-level
// (pgconn.SafeToRetry or pgconn.Timeout, SQLITE_BUSY or SQLITE_LOCKED).
// Everything else, a missing table included, is Fatal.
//
// # Toggle
//
// Toggle reads the row and writes the flipped flag inside one transaction that
// holds a lock on the row (SELECT ... FOR UPDATE on PostgreSQL, BEGIN IMMEDIATE
// on SQLite), so two concurrent toggles of the same task always produce two
// flips.
//
// # Testing
//
// The storagetest package holds a testify suite that every backend runs:
//
//	func TestSQLiteStore(t *testing.T) {
//	    suite.Run(t, storagetest.NewSuite(func(t *testing.T) storage.Store {
//	        return newTestStore(t)
//	    }))
//	}
package storage
