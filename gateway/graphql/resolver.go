package graphql

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/storage"
	"github.com/c360/taskql/task"
)

// MetricsRecorder receives per-operation outcomes. metric.Metrics satisfies it.
type MetricsRecorder interface {
	RecordOperation(operation string, success bool, duration time.Duration)
	RecordError(operation, code string)
}

// Resolver is the root resolver bound to the Query and Mutation types.
// It holds no task state; every field goes to the store.
type Resolver struct {
	store   storage.Store
	logger  *slog.Logger
	metrics MetricsRecorder
}

// NewResolver creates the root resolver. metrics may be nil.
func NewResolver(store storage.Store, logger *slog.Logger, metrics MetricsRecorder) (*Resolver, error) {
	if store == nil {
		return nil, errors.WrapFatal(fmt.Errorf("store is nil"), "Resolver", "NewResolver",
			"store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:   store,
		logger:  logger.With("component", "graphql-resolver"),
		metrics: metrics,
	}, nil
}

// finish records metrics and logs for one resolved operation and converts err
// into a field error.
func (r *Resolver) finish(ctx context.Context, operation string, start time.Time, err error) error {
	duration := time.Since(start)
	fe := mapError(ctx, err, operation)

	if r.metrics != nil {
		r.metrics.RecordOperation(operation, fe == nil, duration)
		if fe != nil {
			r.metrics.RecordError(operation, fe.Code())
		}
	}

	logger := loggerFrom(ctx, r.logger)
	switch {
	case fe == nil:
		logger.Debug("Operation resolved", "operation", operation, "duration", duration)
		return nil
	case fe.code == CodeNotFound || fe.code == CodeInvalidInput:
		logger.Debug("Operation rejected", "operation", operation, "code", fe.code, "error", err)
	default:
		logger.Error("Operation failed", "operation", operation, "code", fe.code, "error", err)
	}
	return fe
}

// Tasks resolves Query.tasks.
func (r *Resolver) Tasks(ctx context.Context) (*[]*taskResolver, error) {
	start := time.Now()
	tasks, err := r.store.List(ctx)
	if err != nil {
		return nil, r.finish(ctx, "tasks", start, err)
	}

	result := make([]*taskResolver, len(tasks))
	for i := range tasks {
		result[i] = &taskResolver{t: tasks[i]}
	}
	return &result, r.finish(ctx, "tasks", start, nil)
}

// AddTask resolves Mutation.addTask. A null name is stored as NULL.
func (r *Resolver) AddTask(ctx context.Context, args struct{ Name *string }) (*taskResolver, error) {
	start := time.Now()
	t, err := r.store.Add(ctx, args.Name)
	if err != nil {
		return nil, r.finish(ctx, "addTask", start, err)
	}
	return &taskResolver{t: t}, r.finish(ctx, "addTask", start, nil)
}

// DeleteTask resolves Mutation.deleteTask. A null id matches no row.
func (r *Resolver) DeleteTask(ctx context.Context, args struct{ ID *int32 }) (*bool, error) {
	start := time.Now()
	deleted := false
	if args.ID != nil {
		var err error
		deleted, err = r.store.Delete(ctx, int64(*args.ID))
		if err != nil {
			return nil, r.finish(ctx, "deleteTask", start, err)
		}
	}
	return &deleted, r.finish(ctx, "deleteTask", start, nil)
}

// ToggleTask resolves Mutation.toggleTask. A null id matches no row.
func (r *Resolver) ToggleTask(ctx context.Context, args struct{ ID *int32 }) (*taskResolver, error) {
	start := time.Now()
	if args.ID == nil {
		return nil, r.finish(ctx, "toggleTask", start, task.ErrNotFound)
	}

	t, err := r.store.Toggle(ctx, int64(*args.ID))
	if err != nil {
		return nil, r.finish(ctx, "toggleTask", start, err)
	}
	return &taskResolver{t: t}, r.finish(ctx, "toggleTask", start, nil)
}

// taskResolver resolves the fields of the Task type.
type taskResolver struct {
	t task.Task
}

func (r *taskResolver) ID() (*int32, error) {
	if r.t.ID > math.MaxInt32 || r.t.ID < math.MinInt32 {
		return nil, fmt.Errorf("task id %d exceeds the Int range", r.t.ID)
	}
	id := int32(r.t.ID)
	return &id, nil
}

func (r *taskResolver) Name() *string {
	return r.t.Name
}

func (r *taskResolver) Iscompleted() *bool {
	completed := r.t.IsCompleted
	return &completed
}
