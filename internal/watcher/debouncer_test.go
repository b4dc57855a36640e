package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Events():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
		return nil
	}
}

func event(path string, op Operation) FileEvent {
	return FileEvent{Path: path, Operation: op, Timestamp: time.Now()}
}

func TestDebouncer_EmitsSingleEvent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()

	d.Add(event("/a.stories.json", OpModify))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "/a.stories.json", batch[0].Path)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_Coalescing(t *testing.T) {
	tests := []struct {
		name     string
		ops      []Operation
		expected Operation
	}{
		{name: "create then modify stays create", ops: []Operation{OpCreate, OpModify}, expected: OpCreate},
		{name: "delete then create becomes modify", ops: []Operation{OpDelete, OpCreate}, expected: OpModify},
		{name: "modify then delete becomes delete", ops: []Operation{OpModify, OpDelete}, expected: OpDelete},
		{name: "repeated modify stays modify", ops: []Operation{OpModify, OpModify, OpModify}, expected: OpModify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(10 * time.Millisecond)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(event("/a.stories.json", op))
			}

			batch := collectBatch(t, d)
			require.Len(t, batch, 1)
			assert.Equal(t, tt.expected, batch[0].Operation)
		})
	}
}

func TestDebouncer_CreateDeleteCancels(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()

	d.Add(event("/transient.stories.json", OpCreate))
	d.Add(event("/transient.stories.json", OpDelete))
	d.Add(event("/kept.stories.json", OpModify))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "/kept.stories.json", batch[0].Path)
}

func TestDebouncer_BatchesDistinctPaths(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(event("/a.stories.json", OpModify))
	d.Add(event("/b.stories.json", OpCreate))

	batch := collectBatch(t, d)
	assert.Len(t, batch, 2)
}

func TestDebouncer_StopDiscardsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	d.Add(event("/a.stories.json", OpModify))
	d.Stop()

	_, ok := <-d.Events()
	assert.False(t, ok, "output channel closes without emitting")

	// Adding after stop is a no-op, not a panic.
	d.Add(event("/b.stories.json", OpModify))
	d.Stop()
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "modify", OpModify.String())
	assert.Equal(t, "delete", OpDelete.String())
	assert.Equal(t, "unknown", Operation(99).String())
}
