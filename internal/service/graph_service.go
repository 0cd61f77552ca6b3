// Package service orchestrates fetching, reconciliation, assembly, and layout.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snowviz/snowviz-backend/internal/models"
	"github.com/snowviz/snowviz-backend/internal/pkg/graphcache"
	"github.com/snowviz/snowviz-backend/internal/pkg/metrics"
	"github.com/snowviz/snowviz-backend/internal/topology"
)

// Source is the data-source adapter consumed by the graph service. Each call
// is best-effort and may fail independently.
type Source interface {
	ListComputePools(ctx context.Context) ([]models.ComputePool, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	ListServicesInPool(ctx context.Context, pool string) ([]models.Service, error)
	ListNotebooks(ctx context.Context) ([]models.Notebook, error)
	ListIntegrations(ctx context.Context) ([]models.ExternalAccessIntegration, error)
}

// GraphService assembles the topology graph and applies the collapse view.
type GraphService interface {
	GetGraph(ctx context.Context) (*models.GraphData, error)
	ListComputePools(ctx context.Context) ([]models.ComputePool, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	ListNotebooks(ctx context.Context) ([]models.Notebook, error)
	ListIntegrations(ctx context.Context) ([]models.ExternalAccessIntegration, error)
	TogglePool(ctx context.Context, pool string) (*models.GraphData, error)
	SetAllPools(ctx context.Context, collapsed bool) (*models.GraphData, error)
	Refresh()
}

// snapshot is one assembled (pre-layout) graph plus its provenance. Collapse
// is applied after the snapshot, so toggles never refetch.
type snapshot struct {
	graph     *topology.Graph
	poolNames []string
	degraded  []string
	dropped   int
}

type graphService struct {
	source       Source
	collapse     *topology.CollapseState
	engine       *topology.Engine
	cache        *graphcache.Cache[snapshot]
	log          *slog.Logger
	workers      int
	fetchTimeout time.Duration
}

// Options configures the graph service.
type Options struct {
	CacheTTL     time.Duration
	Workers      int           // max concurrent per-pool service listings
	FetchTimeout time.Duration // overall budget for one graph assembly; 0 = no limit
}

// NewGraphService creates a graph service over the given data source.
func NewGraphService(source Source, log *slog.Logger, opts Options) GraphService {
	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	return &graphService{
		source:       source,
		collapse:     topology.NewCollapseState(),
		engine:       topology.NewEngine(log),
		cache:        graphcache.New[snapshot](opts.CacheTTL),
		log:          log,
		workers:      workers,
		fetchTimeout: opts.FetchTimeout,
	}
}

// GetGraph returns the assembled graph with positions, using the cached
// snapshot when fresh.
func (s *graphService) GetGraph(ctx context.Context) (*models.GraphData, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(snap), nil
}

// TogglePool flips a pool's collapse state and returns the re-rendered view.
// Unseen pools default to expanded, so the first toggle collapses.
func (s *graphService) TogglePool(ctx context.Context, pool string) (*models.GraphData, error) {
	s.collapse.Toggle(pool)
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(snap), nil
}

// SetAllPools collapses or expands every known pool and returns the
// re-rendered view.
func (s *graphService) SetAllPools(ctx context.Context, collapsed bool) (*models.GraphData, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.collapse.SetAll(snap.poolNames, collapsed)
	return s.render(snap), nil
}

// Refresh drops the cached snapshot so the next request refetches.
func (s *graphService) Refresh() {
	s.cache.Invalidate()
}

func (s *graphService) ListComputePools(ctx context.Context) ([]models.ComputePool, error) {
	return s.source.ListComputePools(ctx)
}

func (s *graphService) ListServices(ctx context.Context) ([]models.Service, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	services := make([]models.Service, 0)
	for _, node := range snap.graph.GetNodesByKind(models.KindService) {
		services = append(services, serviceFromNode(node))
	}
	return services, nil
}

func (s *graphService) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	return s.source.ListNotebooks(ctx)
}

func (s *graphService) ListIntegrations(ctx context.Context) ([]models.ExternalAccessIntegration, error) {
	return s.source.ListIntegrations(ctx)
}

func (s *graphService) render(snap *snapshot) *models.GraphData {
	data := topology.ComputeLayout(snap.graph, s.collapse.Snapshot())
	data.Meta.DegradedSources = snap.degraded
	data.Meta.DroppedEdges = snap.dropped
	return &data
}

// snapshot returns the cached assembled graph or builds a fresh one. A build
// never fails: every source failure degrades to an empty slice and is listed
// in the snapshot's degraded sources.
func (s *graphService) snapshot(ctx context.Context) (*snapshot, error) {
	if snap, ok := s.cache.Get(); ok {
		return snap, nil
	}

	start := time.Now()
	snap := s.build(ctx)
	metrics.GraphBuildDurationSeconds.Observe(time.Since(start).Seconds())

	s.cache.Set(snap)
	return snap, nil
}

func (s *graphService) build(ctx context.Context) *snapshot {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	var (
		pools        []models.ComputePool
		baseline     []models.Service
		notebooks    []models.Notebook
		integrations []models.ExternalAccessIntegration

		poolsErr, baselineErr, notebooksErr, integrationsErr error
	)

	// The four kind listings are independent; fan out and join. Failures stay
	// local to their slice.
	var g errgroup.Group
	g.Go(func() error { pools, poolsErr = s.source.ListComputePools(ctx); return nil })
	g.Go(func() error { baseline, baselineErr = s.source.ListServices(ctx); return nil })
	g.Go(func() error { notebooks, notebooksErr = s.source.ListNotebooks(ctx); return nil })
	g.Go(func() error { integrations, integrationsErr = s.source.ListIntegrations(ctx); return nil })
	_ = g.Wait()

	var degraded []string
	if poolsErr != nil {
		s.log.Warn("compute pool listing failed", "error", poolsErr)
		degraded = append(degraded, "compute_pools")
	}
	if baselineErr != nil {
		s.log.Warn("global service listing failed, proceeding with pool-scoped data only", "error", baselineErr)
		degraded = append(degraded, "services")
	}
	if notebooksErr != nil {
		s.log.Warn("notebook listing failed", "error", notebooksErr)
		degraded = append(degraded, "notebooks")
	}
	if integrationsErr != nil {
		s.log.Warn("integration listing failed", "error", integrationsErr)
		degraded = append(degraded, "integrations")
	}

	// Pool-scoped service listings are independent per pool; fan out bounded
	// by the worker limit so the warehouse is not overwhelmed. Results land in
	// listing order so reconciliation stays deterministic.
	perPool := make([]topology.PoolServices, len(pools))
	var pg errgroup.Group
	pg.SetLimit(s.workers)
	for i, cp := range pools {
		pg.Go(func() error {
			services, err := s.source.ListServicesInPool(ctx, cp.Name)
			perPool[i] = topology.PoolServices{Pool: cp.Name, Services: services, Err: err}
			return nil
		})
	}
	_ = pg.Wait()

	services := topology.ReconcileServices(baseline, perPool, s.log)
	graph, dropped := s.engine.Assemble(pools, services, notebooks, integrations)

	poolNames := make([]string, 0, len(pools))
	for _, cp := range pools {
		poolNames = append(poolNames, cp.Name)
	}

	return &snapshot{
		graph:     graph,
		poolNames: poolNames,
		degraded:  degraded,
		dropped:   dropped,
	}
}

// serviceFromNode rebuilds the service record from a graph node's data
// payload for the /services listing.
func serviceFromNode(node models.GraphNode) models.Service {
	svc := models.Service{
		Name:         dataString(node, "name"),
		DatabaseName: dataString(node, "database"),
		SchemaName:   dataString(node, "schema"),
		Owner:        dataString(node, "owner"),
		ComputePool:  dataString(node, "computePool"),
		Status:       dataString(node, "status"),
	}
	if n, ok := node.Data["currentInstances"].(int); ok {
		svc.CurrentInstances = n
	}
	if n, ok := node.Data["targetInstances"].(int); ok {
		svc.TargetInstances = n
	}
	if list, ok := node.Data["eaiList"].([]string); ok {
		svc.Integrations = list
	}
	return svc
}

func dataString(node models.GraphNode, key string) string {
	if s, ok := node.Data[key].(string); ok {
		return s
	}
	return ""
}
