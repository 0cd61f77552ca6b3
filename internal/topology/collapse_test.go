package topology

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseDefaultsExpanded(t *testing.T) {
	state := NewCollapseState()

	assert.False(t, state.IsCollapsed("POOL1"))
	assert.False(t, state.IsCollapsed("never-seen"))
}

func TestToggleFlipsState(t *testing.T) {
	state := NewCollapseState()

	assert.True(t, state.Toggle("POOL1"))
	assert.True(t, state.IsCollapsed("POOL1"))

	assert.False(t, state.Toggle("POOL1"))
	assert.False(t, state.IsCollapsed("POOL1"))
}

func TestToggleIdempotenceThroughLayout(t *testing.T) {
	// Toggling twice returns the derived layout and edge output to the
	// pre-toggle state.
	graph := buildTestGraph(t, []string{"POOL1", "POOL2"}, map[string]int{"POOL1": 3, "POOL2": 1})
	state := NewCollapseState()

	before := ComputeLayout(graph, state.Snapshot())
	state.Toggle("POOL1")
	state.Toggle("POOL1")
	after := ComputeLayout(graph, state.Snapshot())

	assert.Equal(t, before.Nodes, after.Nodes)
	assert.Equal(t, before.Edges, after.Edges)
	assert.Equal(t, before.Pools, after.Pools)
}

func TestSetAll(t *testing.T) {
	state := NewCollapseState()
	pools := []string{"P1", "P2", "P3"}

	state.SetAll(pools, true)
	for _, p := range pools {
		assert.True(t, state.IsCollapsed(p))
	}

	state.SetAll(pools, false)
	for _, p := range pools {
		assert.False(t, state.IsCollapsed(p))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	state := NewCollapseState()
	state.Toggle("POOL1")

	snap := state.Snapshot()
	snap["POOL1"] = false
	snap["POOL2"] = true

	assert.True(t, state.IsCollapsed("POOL1"))
	assert.False(t, state.IsCollapsed("POOL2"))
}

func TestConcurrentToggles(t *testing.T) {
	state := NewCollapseState()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Even number of toggles per key: final state must be expanded.
			state.Toggle("POOL1")
			state.Toggle("POOL1")
			state.Toggle("POOL2")
			state.Toggle("POOL2")
		}()
	}
	wg.Wait()

	assert.False(t, state.IsCollapsed("POOL1"))
	assert.False(t, state.IsCollapsed("POOL2"))
}
