// Package storagetest provides a testify suite that exercises any
// storage.Store implementation against the task contract.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/suite"

	"github.com/c360/taskql/storage"
	"github.com/c360/taskql/task"
)

// Name returns a task name for Store.Add.
func Name(s string) *string {
	return &s
}

// Factory returns an empty, schema-initialized store for one test.
type Factory func(t *testing.T) storage.Store

// Suite is the shared Store conformance suite.
type Suite struct {
	suite.Suite

	factory Factory
	store   storage.Store
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSuite creates a suite that builds a fresh store per test with factory.
func NewSuite(factory Factory) *Suite {
	return &Suite{factory: factory}
}

// SetupTest creates the store under test.
func (s *Suite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 30*time.Second)
	s.store = s.factory(s.T())
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

// TearDownTest releases the store.
func (s *Suite) TearDownTest() {
	s.cancel()
	s.NoError(s.store.Close())
}

func (s *Suite) TestListEmpty() {
	tasks, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(tasks)
	s.Empty(tasks)
}

func (s *Suite) TestAddThenList() {
	added, err := s.store.Add(s.ctx, Name("buy milk"))
	s.Require().NoError(err)
	s.NotZero(added.ID)
	s.Equal(Name("buy milk"), added.Name)
	s.False(added.IsCompleted)

	tasks, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Contains(tasks, added)
}

func (s *Suite) TestAddNullNameRoundTrips() {
	added, err := s.store.Add(s.ctx, nil)
	s.Require().NoError(err)
	s.Nil(added.Name)

	toggled, err := s.store.Toggle(s.ctx, added.ID)
	s.Require().NoError(err)
	s.Nil(toggled.Name)

	tasks, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Nil(tasks[0].Name)
}

func (s *Suite) TestAddEmptyNameIsNotNull() {
	added, err := s.store.Add(s.ctx, Name(""))
	s.Require().NoError(err)
	s.Require().NotNil(added.Name)
	s.Empty(*added.Name)
}

func (s *Suite) TestAddAssignsFreshIdentifiers() {
	first, err := s.store.Add(s.ctx, Name("one"))
	s.Require().NoError(err)
	second, err := s.store.Add(s.ctx, Name("two"))
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	// Identifiers are not reused after a delete.
	removed, err := s.store.Delete(s.ctx, second.ID)
	s.Require().NoError(err)
	s.True(removed)

	third, err := s.store.Add(s.ctx, Name("three"))
	s.Require().NoError(err)
	s.NotEqual(second.ID, third.ID)
	s.NotEqual(first.ID, third.ID)
}

func (s *Suite) TestToggleTwiceRestoresFlag() {
	added, err := s.store.Add(s.ctx, Name("walk dog"))
	s.Require().NoError(err)

	once, err := s.store.Toggle(s.ctx, added.ID)
	s.Require().NoError(err)
	s.True(once.IsCompleted)
	s.Equal(added.ID, once.ID)
	s.Equal(added.Name, once.Name)

	twice, err := s.store.Toggle(s.ctx, added.ID)
	s.Require().NoError(err)
	s.Equal(added, twice)
}

func (s *Suite) TestToggleOnlyAffectsOneRow() {
	a, err := s.store.Add(s.ctx, Name("a"))
	s.Require().NoError(err)
	b, err := s.store.Add(s.ctx, Name("b"))
	s.Require().NoError(err)

	_, err = s.store.Toggle(s.ctx, a.ID)
	s.Require().NoError(err)

	tasks, err := s.store.List(s.ctx)
	s.Require().NoError(err)

	want := []task.Task{
		{ID: a.ID, Name: Name("a"), IsCompleted: true},
		b,
	}
	byID := cmpopts.SortSlices(func(x, y task.Task) bool { return x.ID < y.ID })
	if diff := cmp.Diff(want, tasks, byID); diff != "" {
		s.Failf("unexpected tasks after toggle", "(-want +got):\n%s", diff)
	}
}

func (s *Suite) TestToggleMissing() {
	_, err := s.store.Toggle(s.ctx, 424242)
	s.ErrorIs(err, task.ErrNotFound)
}

func (s *Suite) TestDeleteMissing() {
	removed, err := s.store.Delete(s.ctx, 424242)
	s.Require().NoError(err)
	s.False(removed)
}

func (s *Suite) TestDeleteRemovesRow() {
	added, err := s.store.Add(s.ctx, Name("temp"))
	s.Require().NoError(err)

	removed, err := s.store.Delete(s.ctx, added.ID)
	s.Require().NoError(err)
	s.True(removed)

	tasks, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.NotContains(tasks, added)

	removed, err = s.store.Delete(s.ctx, added.ID)
	s.Require().NoError(err)
	s.False(removed)
}

func (s *Suite) TestConcurrentTogglesAreNotLost() {
	added, err := s.store.Add(s.ctx, Name("contended"))
	s.Require().NoError(err)

	const toggles = 10
	var wg sync.WaitGroup
	errs := make(chan error, toggles)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Toggle(s.ctx, added.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	tasks, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	// An even number of flips lands back on the original value.
	s.Contains(tasks, added)
}

func (s *Suite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

func (s *Suite) TestEnsureSchemaIsIdempotent() {
	s.NoError(s.store.EnsureSchema(s.ctx))
}
