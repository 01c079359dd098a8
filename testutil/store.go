package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/c360/taskql/storage"
	"github.com/c360/taskql/task"
)

// MockStore is an in-memory storage.Store. Identifiers start at 1 and are
// never reused.
type MockStore struct {
	mu     sync.Mutex
	tasks  map[int64]task.Task
	nextID int64
	err    error
	calls  map[string]int
}

var _ storage.Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		tasks:  make(map[int64]task.Task),
		nextID: 1,
		calls:  make(map[string]int),
	}
}

// SetError makes every subsequent operation fail with err. Pass nil to clear.
func (s *MockStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many times op was invoked, failed calls included.
func (s *MockStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *MockStore) enter(op string) error {
	s.calls[op]++
	return s.err
}

// List returns tasks ordered by id.
func (s *MockStore) List(_ context.Context) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("List"); err != nil {
		return nil, err
	}

	result := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Add inserts a task that is not completed.
func (s *MockStore) Add(_ context.Context, name *string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Add"); err != nil {
		return task.Task{}, err
	}

	t := task.Task{ID: s.nextID}
	if name != nil {
		stored := *name
		t.Name = &stored
	}
	s.tasks[t.ID] = t
	s.nextID++
	return t, nil
}

// Delete removes the task and reports whether it existed.
func (s *MockStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Delete"); err != nil {
		return false, err
	}

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

// Toggle flips IsCompleted, or returns task.ErrNotFound.
func (s *MockStore) Toggle(_ context.Context, id int64) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Toggle"); err != nil {
		return task.Task{}, err
	}

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	t.IsCompleted = !t.IsCompleted
	s.tasks[id] = t
	return t, nil
}

// Ping reports the configured error, if any.
func (s *MockStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enter("Ping")
}

// EnsureSchema is a no-op apart from error injection.
func (s *MockStore) EnsureSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enter("EnsureSchema")
}

// Close is a no-op.
func (s *MockStore) Close() error {
	return nil
}
