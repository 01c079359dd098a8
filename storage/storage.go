package storage

import (
	"context"

	"github.com/c360/taskql/task"
)

// Store is the backend interface for task persistence.
//
// Implementations open a connection for every call and release it before
// returning; nothing is cached between calls. All implementations must be safe
// for concurrent use from multiple goroutines.
//
// Connection failures, and driver errors the backend knows to be
// connection-level, are returned as transient errors wrapping
// errors.ErrStorageUnavailable. Any other statement error is fatal.
type Store interface {
	// List returns every task in the store's natural order.
	// Returns an empty slice when the table is empty.
	List(ctx context.Context) ([]task.Task, error)

	// Add inserts a task with the given name and a false completion flag and
	// returns it with its assigned identifier. A nil name is stored as NULL.
	Add(ctx context.Context, name *string) (task.Task, error)

	// Delete removes the task with the given identifier and reports whether
	// a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)

	// Toggle flips the completion flag of the task with the given identifier
	// and returns the updated task. The read and the write happen under a row
	// lock. Returns task.ErrNotFound when no row matches.
	Toggle(ctx context.Context, id int64) (task.Task, error)

	// Ping opens and closes a connection to verify the store is reachable.
	Ping(ctx context.Context) error

	// EnsureSchema creates the task table when it does not exist.
	EnsureSchema(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

