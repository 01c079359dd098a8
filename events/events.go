// Package events publishes task mutation notifications.
//
// Store wraps a storage.Store and, after each successful mutation, publishes
// a JSON encoded task.Event to "<prefix>.<kind>", for example
// "tasks.events.added". Publishing is best effort: a failed publish is logged
// and counted, and the mutation result is returned unchanged.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/storage"
	"github.com/c360/taskql/task"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "tasks.events"

// Publisher sends a payload to a subject. natsclient.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Recorder receives publish outcomes. metric.Metrics satisfies it.
type Recorder interface {
	RecordEventPublished(subject string, success bool)
}

// Store decorates a storage.Store with event publishing.
type Store struct {
	storage.Store

	publisher Publisher
	prefix    string
	recorder  Recorder
	logger    *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithSubjectPrefix sets the subject prefix.
func WithSubjectPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRecorder sets the publish outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore wraps inner so that mutations are published through publisher.
func NewStore(inner storage.Store, publisher Publisher, opts ...Option) (*Store, error) {
	if inner == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "EventStore", "NewStore", "inner store")
	}
	if publisher == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "EventStore", "NewStore", "publisher")
	}

	s := &Store{
		Store:     inner,
		publisher: publisher,
		prefix:    DefaultSubjectPrefix,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "events")
	return s, nil
}

// Subject returns the subject used for events of the given kind.
func (s *Store) Subject(kind task.EventKind) string {
	return s.prefix + "." + string(kind)
}

// Add inserts the task and publishes an added event.
func (s *Store) Add(ctx context.Context, name *string) (task.Task, error) {
	t, err := s.Store.Add(ctx, name)
	if err != nil {
		return t, err
	}
	s.publish(ctx, task.NewEvent(task.EventAdded, t))
	return t, nil
}

// Delete removes the task and publishes a deleted event when a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.Store.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.publish(ctx, task.NewEvent(task.EventDeleted, task.Task{ID: id}))
	return true, nil
}

// Toggle flips the completion flag and publishes a toggled event.
func (s *Store) Toggle(ctx context.Context, id int64) (task.Task, error) {
	t, err := s.Store.Toggle(ctx, id)
	if err != nil {
		return t, err
	}
	s.publish(ctx, task.NewEvent(task.EventToggled, t))
	return t, nil
}

func (s *Store) publish(ctx context.Context, event task.Event) {
	subject := s.Subject(event.Kind)

	data, err := json.Marshal(event)
	if err == nil {
		err = s.publisher.Publish(ctx, subject, data)
	}

	if s.recorder != nil {
		s.recorder.RecordEventPublished(subject, err == nil)
	}
	if err != nil {
		s.logger.Warn("Failed to publish task event",
			"subject", subject,
			"task_id", event.Task.ID,
			"error", err)
		return
	}
	s.logger.Debug("Published task event", "subject", subject, "task_id", event.Task.ID)
}
