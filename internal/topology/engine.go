// Package topology reconciles entity listings into a validated graph and
// computes its collapsible layout. Every step degrades rather than fails:
// partial infrastructure visibility is more useful than none.
package topology

import (
	"log/slog"

	"github.com/snowviz/snowviz-backend/internal/models"
)

// Node ID prefixes, one per entity kind.
const (
	poolIDPrefix     = "cp-"
	serviceIDPrefix  = "svc-"
	notebookIDPrefix = "nb-"
	eaiIDPrefix      = "eai-"
)

// PoolNodeID returns the graph node ID for a compute pool name.
func PoolNodeID(name string) string { return poolIDPrefix + name }

// ServiceNodeID returns the graph node ID for a service FQN.
func ServiceNodeID(fqn string) string { return serviceIDPrefix + fqn }

// NotebookNodeID returns the graph node ID for a notebook FQN.
func NotebookNodeID(fqn string) string { return notebookIDPrefix + fqn }

// EAINodeID returns the graph node ID for an integration name.
func EAINodeID(name string) string { return eaiIDPrefix + name }

// Engine assembles graphs from reconciled entities.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates a new assembly engine.
func NewEngine(log *slog.Logger) *Engine {
	return &Engine{log: log}
}

// Assemble builds the node set and candidate edge set from reconciled
// entities, then prunes edges whose endpoints do not exist. The returned graph
// always satisfies the edge-endpoint invariant. The second return value is the
// number of dangling edges dropped.
//
// One "runs on" edge per service with a non-empty pool attribution, one "uses"
// edge per (service, integration) pair. A service with no pool or no
// integrations simply produces fewer edges.
func (e *Engine) Assemble(
	pools []models.ComputePool,
	services []models.Service,
	notebooks []models.Notebook,
	integrations []models.ExternalAccessIntegration,
) (*Graph, int) {
	graph := NewGraph()

	for _, cp := range pools {
		graph.AddNode(models.GraphNode{
			ID:   PoolNodeID(cp.Name),
			Kind: models.KindComputePool,
			Data: map[string]interface{}{
				"name":           cp.Name,
				"state":          cp.State,
				"minNodes":       cp.MinNodes,
				"maxNodes":       cp.MaxNodes,
				"instanceFamily": cp.InstanceFamily,
				"owner":          cp.Owner,
			},
		})
	}

	for _, eai := range integrations {
		graph.AddNode(models.GraphNode{
			ID:   EAINodeID(eai.Name),
			Kind: models.KindEAI,
			Data: map[string]interface{}{
				"name":    eai.Name,
				"type":    eai.Type,
				"enabled": eai.Enabled,
			},
		})
	}

	for _, svc := range services {
		svcID := ServiceNodeID(svc.FQN())
		graph.AddNode(models.GraphNode{
			ID:   svcID,
			Kind: models.KindService,
			Data: map[string]interface{}{
				"name":             svc.Name,
				"database":         svc.DatabaseName,
				"schema":           svc.SchemaName,
				"owner":            svc.Owner,
				"computePool":      svc.ComputePool,
				"status":           svc.Status,
				"currentInstances": svc.CurrentInstances,
				"targetInstances":  svc.TargetInstances,
				"eaiList":          svc.Integrations,
			},
		})

		if svc.ComputePool != "" {
			graph.AddEdge(models.GraphEdge{
				ID:     "e-svc-cp-" + svc.FQN(),
				Source: svcID,
				Target: PoolNodeID(svc.ComputePool),
				Label:  models.EdgeRunsOn,
			})
		}

		for _, eaiName := range svc.Integrations {
			graph.AddEdge(models.GraphEdge{
				ID:     "e-svc-eai-" + svc.FQN() + "-" + eaiName,
				Source: svcID,
				Target: EAINodeID(eaiName),
				Label:  models.EdgeUses,
			})
		}
	}

	for _, nb := range notebooks {
		graph.AddNode(models.GraphNode{
			ID:   NotebookNodeID(nb.FQN()),
			Kind: models.KindNotebook,
			Data: map[string]interface{}{
				"name":        nb.Name,
				"database":    nb.DatabaseName,
				"schema":      nb.SchemaName,
				"owner":       nb.Owner,
				"warehouse":   nb.QueryWarehouse,
				"idleTimeout": nb.IdleTimeoutSecs,
			},
		})
	}

	dropped := graph.Prune(e.log)
	return graph, dropped
}
