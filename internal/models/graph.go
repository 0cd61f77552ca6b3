package models

import "time"

// Edge labels. Both point right in the rendered layout:
// service -> compute pool ("runs on"), service -> integration ("uses").
const (
	EdgeRunsOn = "runs on"
	EdgeUses   = "uses"
)

// GraphNode is one entity in the topology graph.
type GraphNode struct {
	ID       string                 `json:"id"`
	Kind     string                 `json:"kind"` // computePool, service, notebook, eai
	Data     map[string]interface{} `json:"data"`
	Position *Position              `json:"position,omitempty"`
}

// GraphEdge is a directed relationship between two nodes. Identity is the
// (source, target, label) triple; the graph rejects duplicates.
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Position is a node's 2-D layout coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PoolView is per-pool view metadata attached to the graph response.
type PoolView struct {
	Collapsed       bool `json:"collapsed"`
	VisibleServices int  `json:"visibleServices"`
}

// GraphMeta describes how the graph was assembled.
type GraphMeta struct {
	NodeCount       int       `json:"nodeCount"`
	EdgeCount       int       `json:"edgeCount"`
	GeneratedAt     time.Time `json:"generatedAt"`
	DegradedSources []string  `json:"degradedSources,omitempty"` // sources that failed and contributed nothing
	DroppedEdges    int       `json:"droppedEdges,omitempty"`    // dangling references pruned by validation
}

// GraphData is the complete assembled topology handed to the renderer.
type GraphData struct {
	Nodes []GraphNode         `json:"nodes"`
	Edges []GraphEdge         `json:"edges"`
	Pools map[string]PoolView `json:"pools"` // keyed by pool node ID
	Meta  GraphMeta           `json:"meta"`
}
