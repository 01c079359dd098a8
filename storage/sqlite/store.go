// Package sqlite implements storage.Store on an SQLite file using go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/storage"
	"github.com/c360/taskql/task"
)

const (
	selectTasks = `SELECT id, name, iscompleted FROM task`
	insertTask  = `INSERT INTO task (name) VALUES (?) RETURNING id, name, iscompleted`
	deleteTask  = `DELETE FROM task WHERE id = ?`
	readTask    = `SELECT iscompleted FROM task WHERE id = ?`
	updateTask  = `UPDATE task SET iscompleted = ? WHERE id = ? RETURNING id, name, iscompleted`
	createTable = `CREATE TABLE IF NOT EXISTS task (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT,
    iscompleted BOOLEAN NOT NULL DEFAULT 0
)`
)

// Config holds the SQLite settings.
type Config struct {
	// Path is the database file. In-memory databases are not supported
	// because connections are not kept between operations.
	Path string
}

// Store is a storage.Store backed by a single SQLite file.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore prepares the database handle. The file is created on first use.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "SQLiteStore", "NewStore", "database path")
	}

	// _txlock=immediate makes every BeginTx take the write lock up front,
	// which serializes Toggle's read-then-write.
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_txlock=immediate", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.WrapInvalid(err, "SQLiteStore", "NewStore", "open database")
	}
	// Keep no idle connections so every operation really opens and closes one.
	db.SetMaxIdleConns(0)

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:     db,
		path:   cfg.Path,
		logger: logger.With("component", "sqlite-store"),
	}, nil
}

func (s *Store) connect(ctx context.Context, op string) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		s.logger.Error("Store connection failed",
			"operation", op,
			"path", s.path,
			"error", err)
		return nil, errors.Unavailable(err, "SQLiteStore", op, "connect")
	}
	return conn, nil
}

func (s *Store) release(conn *sql.Conn, op string) {
	if err := conn.Close(); err != nil {
		s.logger.Debug("Store connection close failed", "operation", op, "error", err)
	}
}

// statementError classifies a failed statement. A busy or locked database is
// Transient; anything else, such as a missing table, is Fatal.
func statementError(err error, op, action string) error {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return errors.Unavailable(err, "SQLiteStore", op, action)
	}
	return errors.WrapFatal(err, "SQLiteStore", op, action)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads id, name and iscompleted. A NULL name scans to nil.
func scanTask(row rowScanner) (task.Task, error) {
	var (
		t    task.Task
		name sql.NullString
	)
	if err := row.Scan(&t.ID, &name, &t.IsCompleted); err != nil {
		return task.Task{}, err
	}
	if name.Valid {
		t.Name = &name.String
	}
	return t, nil
}

// List returns every task.
func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	conn, err := s.connect(ctx, "List")
	if err != nil {
		return nil, err
	}
	defer s.release(conn, "List")

	rows, err := conn.QueryContext(ctx, selectTasks)
	if err != nil {
		return nil, statementError(err, "List", "query tasks")
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, statementError(err, "List", "scan task")
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, statementError(err, "List", "iterate tasks")
	}
	return tasks, nil
}

// Add inserts a new task. A nil name is stored as NULL.
func (s *Store) Add(ctx context.Context, name *string) (task.Task, error) {
	conn, err := s.connect(ctx, "Add")
	if err != nil {
		return task.Task{}, err
	}
	defer s.release(conn, "Add")

	t, err := scanTask(conn.QueryRowContext(ctx, insertTask, name))
	if err != nil {
		return task.Task{}, statementError(err, "Add", "insert task")
	}
	return t, nil
}

// Delete removes a task and reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	conn, err := s.connect(ctx, "Delete")
	if err != nil {
		return false, err
	}
	defer s.release(conn, "Delete")

	res, err := conn.ExecContext(ctx, deleteTask, id)
	if err != nil {
		return false, statementError(err, "Delete", "delete task")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, statementError(err, "Delete", "rows affected")
	}
	return n > 0, nil
}

// Toggle flips the completion flag of a task inside an immediate transaction.
func (s *Store) Toggle(ctx context.Context, id int64) (task.Task, error) {
	conn, err := s.connect(ctx, "Toggle")
	if err != nil {
		return task.Task{}, err
	}
	defer s.release(conn, "Toggle")

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return task.Task{}, statementError(err, "Toggle", "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var completed bool
	if err := tx.QueryRowContext(ctx, readTask, id).Scan(&completed); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, statementError(err, "Toggle", "read task")
	}

	t, err := scanTask(tx.QueryRowContext(ctx, updateTask, !completed, id))
	if err != nil {
		return task.Task{}, statementError(err, "Toggle", "update task")
	}

	if err := tx.Commit(); err != nil {
		return task.Task{}, statementError(err, "Toggle", "commit")
	}
	return t, nil
}

// Ping verifies the database file can be opened.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.connect(ctx, "Ping")
	if err != nil {
		return err
	}
	defer s.release(conn, "Ping")

	if err := conn.PingContext(ctx); err != nil {
		return statementError(err, "Ping", "ping")
	}
	return nil
}

// EnsureSchema creates the task table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	conn, err := s.connect(ctx, "EnsureSchema")
	if err != nil {
		return err
	}
	defer s.release(conn, "EnsureSchema")

	if _, err := conn.ExecContext(ctx, createTable); err != nil {
		return statementError(err, "EnsureSchema", "create table")
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return statementError(err, "Close", "close database")
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
