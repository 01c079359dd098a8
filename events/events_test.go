package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/storage/storagetest"
	"github.com/c360/taskql/task"
	"github.com/c360/taskql/testutil"
)

type countingRecorder struct {
	ok, failed int
}

func (r *countingRecorder) RecordEventPublished(_ string, success bool) {
	if success {
		r.ok++
	} else {
		r.failed++
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *testutil.MockStore, *testutil.MockPublisher) {
	t.Helper()
	inner := testutil.NewMockStore()
	pub := testutil.NewMockPublisher()
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	store, err := NewStore(inner, pub, opts...)
	require.NoError(t, err)
	return store, inner, pub
}

func decode(t *testing.T, data []byte) task.Event {
	t.Helper()
	var ev task.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestNewStore_RequiresDependencies(t *testing.T) {
	_, err := NewStore(nil, testutil.NewMockPublisher())
	assert.True(t, errors.IsInvalid(err))

	_, err = NewStore(testutil.NewMockStore(), nil)
	assert.True(t, errors.IsInvalid(err))
}

func TestStore_PublishesMutations(t *testing.T) {
	ctx := context.Background()
	store, _, pub := newTestStore(t, WithSubjectPrefix("demo"))

	added, err := store.Add(ctx, storagetest.Name("write docs"))
	require.NoError(t, err)

	toggled, err := store.Toggle(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)

	deleted, err := store.Delete(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.Equal(t, []string{"demo.added", "demo.toggled", "demo.deleted"}, pub.Subjects())

	ev := decode(t, pub.GetMessages("demo.added")[0])
	assert.Equal(t, task.EventAdded, ev.Kind)
	assert.Equal(t, added, ev.Task)
	assert.False(t, ev.Timestamp.IsZero())

	ev = decode(t, pub.GetMessages("demo.toggled")[0])
	assert.True(t, ev.Task.IsCompleted)

	ev = decode(t, pub.GetMessages("demo.deleted")[0])
	assert.Equal(t, added.ID, ev.Task.ID)
}

func TestStore_NoEventWithoutChange(t *testing.T) {
	ctx := context.Background()
	store, _, pub := newTestStore(t)

	deleted, err := store.Delete(ctx, 42)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Toggle(ctx, 42)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = store.List(ctx)
	require.NoError(t, err)

	assert.Zero(t, pub.MessageCount())
}

func TestStore_StoreFailureSkipsPublish(t *testing.T) {
	store, inner, pub := newTestStore(t)
	inner.SetError(errors.ErrStorageUnavailable)

	_, err := store.Add(context.Background(), storagetest.Name("x"))
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
	assert.Zero(t, pub.MessageCount())
}

func TestStore_PublishFailureDoesNotFailMutation(t *testing.T) {
	recorder := &countingRecorder{}
	store, _, pub := newTestStore(t, WithRecorder(recorder))
	pub.SetError(stderrors.New("nats: connection closed"))

	added, err := store.Add(context.Background(), storagetest.Name("still saved"))
	require.NoError(t, err)
	assert.Equal(t, storagetest.Name("still saved"), added.Name)
	assert.Equal(t, 1, recorder.failed)

	pub.SetError(nil)
	_, err = store.Toggle(context.Background(), added.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.ok)
}

func TestStore_DefaultPrefix(t *testing.T) {
	store, _, _ := newTestStore(t)
	assert.Equal(t, "tasks.events.toggled", store.Subject(task.EventToggled))
}
