// Package task defines the Task entity served by the GraphQL API and the
// events emitted when a task changes.
package task

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no task matches the requested identifier.
var ErrNotFound = errors.New("Task not found")

// Task is a single row of the task table. ID is assigned by the store and
// never changes once assigned. Name is nil when the row holds NULL.
type Task struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name"`
	IsCompleted bool    `json:"iscompleted"`
}

// EventKind names the mutation that produced an Event.
type EventKind string

// Event kinds, also used as the last token of the event subject.
const (
	EventAdded   EventKind = "added"
	EventDeleted EventKind = "deleted"
	EventToggled EventKind = "toggled"
)

// Event describes a successful mutation. For deletions only Task.ID is set.
type Event struct {
	Kind      EventKind `json:"kind"`
	Task      Task      `json:"task"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(kind EventKind, t Task) Event {
	return Event{
		Kind:      kind,
		Task:      t,
		Timestamp: time.Now().UTC(),
	}
}
