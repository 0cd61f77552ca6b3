package topology

import (
	"fmt"
	"log/slog"

	"github.com/snowviz/snowviz-backend/internal/models"
	"github.com/snowviz/snowviz-backend/internal/pkg/metrics"
)

// Graph holds the candidate node and edge sets during assembly. Insertion
// order is preserved; NodeMap/EdgeMap enforce identity-based dedup.
type Graph struct {
	Nodes   []models.GraphNode
	Edges   []models.GraphEdge
	NodeMap map[string]*models.GraphNode // id -> node
	EdgeMap map[string]bool              // (source, target, label) -> present
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:   []models.GraphNode{},
		Edges:   []models.GraphEdge{},
		NodeMap: make(map[string]*models.GraphNode),
		EdgeMap: make(map[string]bool),
	}
}

// AddNode adds a node to the graph. Duplicate IDs are skipped.
func (g *Graph) AddNode(node models.GraphNode) {
	if _, exists := g.NodeMap[node.ID]; exists {
		return
	}
	g.Nodes = append(g.Nodes, node)
	g.NodeMap[node.ID] = &g.Nodes[len(g.Nodes)-1]
}

// AddEdge adds an edge to the graph. Edge identity is the
// (source, target, label) triple; duplicates are skipped.
func (g *Graph) AddEdge(edge models.GraphEdge) {
	edgeKey := fmt.Sprintf("%s->%s:%s", edge.Source, edge.Target, edge.Label)
	if g.EdgeMap[edgeKey] {
		return
	}
	g.Edges = append(g.Edges, edge)
	g.EdgeMap[edgeKey] = true
}

// GetNode retrieves a node by ID.
func (g *Graph) GetNode(id string) *models.GraphNode {
	return g.NodeMap[id]
}

// GetNodesByKind returns all nodes of a given kind in insertion order.
func (g *Graph) GetNodesByKind(kind string) []models.GraphNode {
	var result []models.GraphNode
	for _, node := range g.Nodes {
		if node.Kind == kind {
			result = append(result, node)
		}
	}
	return result
}

// Prune enforces the edge-endpoint invariant: every edge's source and target
// must exist in the node set. Edges that fail are dropped and logged with
// enough detail to diagnose a stale or mistyped entity reference (a service
// naming a pool that no longer exists, a misspelled integration name).
// Pruning never fails the assembly; it degrades by omission. Returns the
// number of edges dropped.
func (g *Graph) Prune(log *slog.Logger) int {
	kept := g.Edges[:0]
	dropped := 0
	for _, edge := range g.Edges {
		if g.GetNode(edge.Source) == nil || g.GetNode(edge.Target) == nil {
			log.Warn("dropping edge with dangling reference",
				"source", edge.Source, "target", edge.Target, "label", edge.Label)
			metrics.DanglingEdgesDroppedTotal.Inc()
			delete(g.EdgeMap, fmt.Sprintf("%s->%s:%s", edge.Source, edge.Target, edge.Label))
			dropped++
			continue
		}
		kept = append(kept, edge)
	}
	g.Edges = kept
	return dropped
}
