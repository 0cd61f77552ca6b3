package topology

import "sync"

// CollapseState tracks, per compute pool name, whether the pool's services are
// visually hidden. Unseen pools default to expanded. This is the only mutable
// state that survives across assembly requests; it is owned by the session,
// not the graph, so re-expanding a pool never requires re-running assembly.
// Safe for concurrent toggles; each toggle is an atomic read-modify-write on
// one key.
type CollapseState struct {
	mu        sync.RWMutex
	collapsed map[string]bool
}

// NewCollapseState returns a state with every pool expanded.
func NewCollapseState() *CollapseState {
	return &CollapseState{collapsed: make(map[string]bool)}
}

// Toggle flips the state for a pool and returns the new value
// (true = collapsed).
func (c *CollapseState) Toggle(pool string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collapsed[pool] = !c.collapsed[pool]
	return c.collapsed[pool]
}

// IsCollapsed reports whether a pool is collapsed.
func (c *CollapseState) IsCollapsed(pool string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collapsed[pool]
}

// SetAll sets every given pool to the same state (collapse all / expand all).
func (c *CollapseState) SetAll(pools []string, collapsed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range pools {
		c.collapsed[p] = collapsed
	}
}

// Snapshot returns a copy of the current map for the layout engine. Layout is
// a pure function of (graph, snapshot), so a consistent copy keeps concurrent
// toggles from shearing a single layout pass.
func (c *CollapseState) Snapshot() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.collapsed))
	for k, v := range c.collapsed {
		out[k] = v
	}
	return out
}
