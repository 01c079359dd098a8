package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskJSONFieldNames(t *testing.T) {
	name := "write docs"
	data, err := json.Marshal(Task{ID: 7, Name: &name, IsCompleted: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"name":"write docs","iscompleted":true}`, string(data))
}

func TestTaskJSONNullName(t *testing.T) {
	data, err := json.Marshal(Task{ID: 8})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":8,"name":null,"iscompleted":false}`, string(data))
}

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	ev := NewEvent(EventToggled, Task{ID: 3})

	assert.Equal(t, EventToggled, ev.Kind)
	assert.Equal(t, int64(3), ev.Task.ID)
	assert.False(t, ev.Timestamp.Before(before))
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
}
