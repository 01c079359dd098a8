// Package postgres implements storage.Store on PostgreSQL using pgx.
package postgres

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/storage"
	"github.com/c360/taskql/task"
)

const (
	selectTasks = `SELECT id, name, iscompleted FROM task`
	insertTask  = `INSERT INTO task (name) VALUES ($1) RETURNING id, name, iscompleted`
	deleteTask  = `DELETE FROM task WHERE id = $1`
	lockTask    = `SELECT iscompleted FROM task WHERE id = $1 FOR UPDATE`
	updateTask  = `UPDATE task SET iscompleted = $1 WHERE id = $2 RETURNING id, name, iscompleted`
	createTable = `CREATE TABLE IF NOT EXISTS task (
    id          SERIAL PRIMARY KEY,
    name        TEXT,
    iscompleted BOOLEAN NOT NULL DEFAULT false
)`
)

// Config holds the PostgreSQL connection parameters.
type Config struct {
	User           string
	Password       string
	Host           string
	Port           int
	Database       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// ConnString renders the configuration as a postgres:// URL.
func (c Config) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	q := url.Values{}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Store is a storage.Store that dials a new connection for every operation.
type Store struct {
	connConfig *pgx.ConnConfig
	logger     *slog.Logger
}

// NewStore parses the configuration. No connection is made until the first
// operation.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	connConfig, err := pgx.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, errors.WrapInvalid(err, "PostgresStore", "NewStore", "parse connection config")
	}
	if cfg.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		connConfig: connConfig,
		logger:     logger.With("component", "postgres-store"),
	}, nil
}

// connect opens a dedicated connection for one operation. Failures are logged
// here and returned as ErrStorageUnavailable.
func (s *Store) connect(ctx context.Context, op string) (*pgx.Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, s.connConfig)
	if err != nil {
		s.logger.Error("Store connection failed",
			"operation", op,
			"host", s.connConfig.Host,
			"database", s.connConfig.Database,
			"error", err)
		return nil, errors.Unavailable(err, "PostgresStore", op, "connect")
	}
	return conn, nil
}

// release closes a per-operation connection. Close errors are not actionable.
func (s *Store) release(conn *pgx.Conn, op string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		s.logger.Debug("Store connection close failed", "operation", op, "error", err)
	}
}

// statementError classifies a failed statement. Only errors pgconn reports as
// connection-level are Transient; SQL errors such as a missing table are Fatal.
func statementError(err error, op, action string) error {
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return errors.Unavailable(err, "PostgresStore", op, action)
	}
	return errors.WrapFatal(err, "PostgresStore", op, action)
}

// scanTask reads id, name and iscompleted. A NULL name scans to nil.
func scanTask(row pgx.CollectableRow) (task.Task, error) {
	var t task.Task
	err := row.Scan(&t.ID, &t.Name, &t.IsCompleted)
	return t, err
}

// List returns every task.
func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	conn, err := s.connect(ctx, "List")
	if err != nil {
		return nil, err
	}
	defer s.release(conn, "List")

	rows, err := conn.Query(ctx, selectTasks)
	if err != nil {
		return nil, statementError(err, "List", "query tasks")
	}

	tasks, err := pgx.CollectRows(rows, scanTask)
	if err != nil {
		return nil, statementError(err, "List", "scan tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
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

	var t task.Task
	if err := conn.QueryRow(ctx, insertTask, name).Scan(&t.ID, &t.Name, &t.IsCompleted); err != nil {
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

	tag, err := conn.Exec(ctx, deleteTask, id)
	if err != nil {
		return false, statementError(err, "Delete", "delete task")
	}
	return tag.RowsAffected() > 0, nil
}

// Toggle flips the completion flag of a task under a row lock.
func (s *Store) Toggle(ctx context.Context, id int64) (task.Task, error) {
	conn, err := s.connect(ctx, "Toggle")
	if err != nil {
		return task.Task{}, err
	}
	defer s.release(conn, "Toggle")

	tx, err := conn.Begin(ctx)
	if err != nil {
		return task.Task{}, statementError(err, "Toggle", "begin transaction")
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	var completed bool
	if err := tx.QueryRow(ctx, lockTask, id).Scan(&completed); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, statementError(err, "Toggle", "lock task")
	}

	var t task.Task
	if err := tx.QueryRow(ctx, updateTask, !completed, id).Scan(&t.ID, &t.Name, &t.IsCompleted); err != nil {
		return task.Task{}, statementError(err, "Toggle", "update task")
	}

	if err := tx.Commit(ctx); err != nil {
		return task.Task{}, statementError(err, "Toggle", "commit")
	}
	return t, nil
}

// Ping verifies the database accepts connections.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.connect(ctx, "Ping")
	if err != nil {
		return err
	}
	defer s.release(conn, "Ping")

	if err := conn.Ping(ctx); err != nil {
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

	if _, err := conn.Exec(ctx, createTable); err != nil {
		return statementError(err, "EnsureSchema", "create table")
	}
	return nil
}

// Close is a no-op; connections never outlive an operation.
func (s *Store) Close() error {
	return nil
}

var _ storage.Store = (*Store)(nil)
