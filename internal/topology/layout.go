package topology

import (
	"sort"
	"time"

	"github.com/snowviz/snowviz-backend/internal/models"
)

// Layout constants. One fixed X per entity kind so the reading order
// left-to-right is notebook -> service -> compute pool -> integration,
// matching the edge directions ("runs on" and "uses" both point right).
const (
	notebookX = 80.0
	serviceX  = 420.0
	poolX     = 760.0
	eaiX      = 1100.0

	topMargin        = 40.0  // first cluster / first row offset
	serviceSpacing   = 80.0  // vertical gap between stacked services in a cluster
	minClusterHeight = 120.0 // floor height so an empty or collapsed cluster still reads as a block
	clusterGap       = 60.0  // vertical gap between clusters
	rowSpacing       = 100.0 // vertical gap in the notebook and integration columns
)

// cluster pairs a pool node with its services for layout ordering.
type cluster struct {
	poolNode *models.GraphNode // nil for the unassigned pseudo-cluster
	poolName string
	services []*models.GraphNode
}

// ComputeLayout assigns a 2-D position to every visible node and filters the
// edge set against the collapse map. It is a pure function of
// (graph, collapsed): identical inputs yield identical coordinates. The input
// graph is not mutated; collapsing is a view-level filter.
//
// Pools are laid out busiest-first: descending count of associated services,
// ties broken by stable input order, so the densest clusters anchor the top.
// Services with no resolvable pool — no attribution at all, or a pool name
// with no matching pool node (a stale reference whose edge the validator
// already dropped) — go into an "unassigned" pseudo-cluster below the real
// clusters rather than being dropped.
func ComputeLayout(g *Graph, collapsed map[string]bool) models.GraphData {
	poolNames := make(map[string]bool)
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Kind == models.KindComputePool {
			poolNames[dataString(node, "name")] = true
		}
	}

	byPool := make(map[string][]*models.GraphNode)
	var orphans []*models.GraphNode
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Kind != models.KindService {
			continue
		}
		pool := dataString(node, "computePool")
		if !poolNames[pool] {
			orphans = append(orphans, node)
			continue
		}
		byPool[pool] = append(byPool[pool], node)
	}

	var clusters []cluster
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Kind != models.KindComputePool {
			continue
		}
		name := dataString(node, "name")
		clusters = append(clusters, cluster{
			poolNode: node,
			poolName: name,
			services: byPool[name],
		})
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].services) > len(clusters[j].services)
	})
	if len(orphans) > 0 {
		clusters = append(clusters, cluster{poolName: "", services: orphans})
	}

	out := models.GraphData{
		Nodes: []models.GraphNode{},
		Edges: []models.GraphEdge{},
		Pools: make(map[string]models.PoolView),
	}
	hidden := make(map[string]bool)

	y := topMargin
	for _, cl := range clusters {
		isCollapsed := cl.poolNode != nil && collapsed[cl.poolName]

		visible := cl.services
		if isCollapsed {
			visible = nil
		}

		height := float64(len(visible)) * serviceSpacing
		if height < minClusterHeight {
			height = minClusterHeight
		}

		if cl.poolNode != nil {
			poolOut := *cl.poolNode
			poolOut.Position = &models.Position{X: poolX, Y: y + height/2}
			out.Nodes = append(out.Nodes, poolOut)
			out.Pools[cl.poolNode.ID] = models.PoolView{
				Collapsed:       isCollapsed,
				VisibleServices: len(visible),
			}
		}

		for i, svc := range visible {
			svcOut := *svc
			svcOut.Position = &models.Position{X: serviceX, Y: y + float64(i)*serviceSpacing}
			out.Nodes = append(out.Nodes, svcOut)
		}
		if isCollapsed {
			for _, svc := range cl.services {
				hidden[svc.ID] = true
			}
		}

		y += height + clusterGap
	}

	// Notebooks and integrations do not participate in clustering; each column
	// stacks in input order.
	nbY := topMargin
	eaiY := topMargin
	for i := range g.Nodes {
		node := &g.Nodes[i]
		switch node.Kind {
		case models.KindNotebook:
			nodeOut := *node
			nodeOut.Position = &models.Position{X: notebookX, Y: nbY}
			out.Nodes = append(out.Nodes, nodeOut)
			nbY += rowSpacing
		case models.KindEAI:
			nodeOut := *node
			nodeOut.Position = &models.Position{X: eaiX, Y: eaiY}
			out.Nodes = append(out.Nodes, nodeOut)
			eaiY += rowSpacing
		}
	}

	// Edges touching a hidden service are filtered from the rendered set; the
	// underlying graph keeps them, so expanding restores them without
	// re-running assembly.
	for _, edge := range g.Edges {
		if hidden[edge.Source] || hidden[edge.Target] {
			continue
		}
		out.Edges = append(out.Edges, edge)
	}

	out.Meta = models.GraphMeta{
		NodeCount:   len(out.Nodes),
		EdgeCount:   len(out.Edges),
		GeneratedAt: time.Now().UTC(),
	}
	return out
}

func dataString(node *models.GraphNode, key string) string {
	if s, ok := node.Data[key].(string); ok {
		return s
	}
	return ""
}
