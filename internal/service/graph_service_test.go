package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowviz/snowviz-backend/internal/models"
)

// fakeSource is an in-memory data-source adapter with per-call failure knobs.
type fakeSource struct {
	pools        []models.ComputePool
	baseline     []models.Service
	perPool      map[string][]models.Service
	notebooks    []models.Notebook
	integrations []models.ExternalAccessIntegration

	poolsErr        error
	baselineErr     error
	notebooksErr    error
	integrationsErr error
	poolErrs        map[string]error

	listCalls atomic.Int32
}

func (f *fakeSource) ListComputePools(ctx context.Context) ([]models.ComputePool, error) {
	f.listCalls.Add(1)
	return f.pools, f.poolsErr
}

func (f *fakeSource) ListServices(ctx context.Context) ([]models.Service, error) {
	return f.baseline, f.baselineErr
}

func (f *fakeSource) ListServicesInPool(ctx context.Context, pool string) ([]models.Service, error) {
	if err := f.poolErrs[pool]; err != nil {
		return nil, err
	}
	return f.perPool[pool], nil
}

func (f *fakeSource) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	return f.notebooks, f.notebooksErr
}

func (f *fakeSource) ListIntegrations(ctx context.Context) ([]models.ExternalAccessIntegration, error) {
	return f.integrations, f.integrationsErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSource() *fakeSource {
	return &fakeSource{
		pools: []models.ComputePool{{Name: "POOL1", State: "ACTIVE"}},
		baseline: []models.Service{
			{DatabaseName: "A", SchemaName: "B", Name: "S1", ComputePool: "", Integrations: []string{"EAI_1"}},
		},
		perPool: map[string][]models.Service{
			"POOL1": {
				{DatabaseName: "A", SchemaName: "B", Name: "S1", ComputePool: "POOL1", Integrations: []string{"EAI_1"}},
			},
		},
		notebooks:    []models.Notebook{{DatabaseName: "A", SchemaName: "B", Name: "NB1"}},
		integrations: []models.ExternalAccessIntegration{{Name: "EAI_1", Enabled: true}},
	}
}

func TestGetGraphEndToEnd(t *testing.T) {
	gs := NewGraphService(newTestSource(), testLogger(), Options{})

	graph, err := gs.GetGraph(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, len(graph.Nodes))
	assert.Equal(t, 2, len(graph.Edges))
	assert.Empty(t, graph.Meta.DegradedSources)
	assert.Equal(t, 0, graph.Meta.DroppedEdges)

	// Every node left the layout engine with a position.
	for _, node := range graph.Nodes {
		assert.NotNil(t, node.Position, "node %s has no position", node.ID)
	}

	// The pool-scoped attribution overrode the empty baseline value.
	services, err := gs.ListServices(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, len(services))
	assert.Equal(t, "POOL1", services[0].ComputePool)
}

func TestGetGraphDegradedSources(t *testing.T) {
	source := newTestSource()
	source.baselineErr = errors.New("listing failed")
	source.notebooksErr = errors.New("listing failed")
	gs := NewGraphService(source, testLogger(), Options{})

	graph, err := gs.GetGraph(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"services", "notebooks"}, graph.Meta.DegradedSources)
	// Pool-scoped data still produced the service.
	assert.Equal(t, 3, len(graph.Nodes)) // pool, service, integration
}

func TestGetGraphTotalFailureYieldsEmptyGraph(t *testing.T) {
	source := newTestSource()
	source.poolsErr = errors.New("down")
	source.baselineErr = errors.New("down")
	source.notebooksErr = errors.New("down")
	source.integrationsErr = errors.New("down")
	gs := NewGraphService(source, testLogger(), Options{})

	// Degraded-or-empty, never a hard failure.
	graph, err := gs.GetGraph(context.Background())
	require.NoError(t, err)

	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
	assert.ElementsMatch(t,
		[]string{"compute_pools", "services", "notebooks", "integrations"},
		graph.Meta.DegradedSources)
}

func TestGetGraphFailedPoolIsIsolated(t *testing.T) {
	source := newTestSource()
	source.pools = append(source.pools, models.ComputePool{Name: "POOL2"})
	source.perPool["POOL2"] = []models.Service{
		{DatabaseName: "A", SchemaName: "B", Name: "S2", ComputePool: "POOL2"},
	}
	source.poolErrs = map[string]error{"POOL1": errors.New("timeout")}
	gs := NewGraphService(source, testLogger(), Options{})

	graph, err := gs.GetGraph(context.Background())
	require.NoError(t, err)

	// POOL1's scoped listing failed, but its baseline record and POOL2's
	// services survive.
	services, err := gs.ListServices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, len(services))
	assert.NotEmpty(t, graph.Nodes)
}

func TestTogglePoolCollapsesAndRestores(t *testing.T) {
	gs := NewGraphService(newTestSource(), testLogger(), Options{CacheTTL: time.Minute})

	expanded, err := gs.GetGraph(context.Background())
	require.NoError(t, err)

	collapsed, err := gs.TogglePool(context.Background(), "POOL1")
	require.NoError(t, err)
	assert.True(t, collapsed.Pools["cp-POOL1"].Collapsed)
	assert.Less(t, len(collapsed.Nodes), len(expanded.Nodes))
	assert.Less(t, len(collapsed.Edges), len(expanded.Edges))

	restored, err := gs.TogglePool(context.Background(), "POOL1")
	require.NoError(t, err)
	assert.Equal(t, expanded.Nodes, restored.Nodes)
	assert.Equal(t, expanded.Edges, restored.Edges)
}

func TestSetAllPools(t *testing.T) {
	source := newTestSource()
	source.pools = append(source.pools, models.ComputePool{Name: "POOL2"})
	gs := NewGraphService(source, testLogger(), Options{CacheTTL: time.Minute})

	collapsed, err := gs.SetAllPools(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, collapsed.Pools["cp-POOL1"].Collapsed)
	assert.True(t, collapsed.Pools["cp-POOL2"].Collapsed)

	expanded, err := gs.SetAllPools(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, expanded.Pools["cp-POOL1"].Collapsed)
	assert.False(t, expanded.Pools["cp-POOL2"].Collapsed)
}

func TestSnapshotCaching(t *testing.T) {
	source := newTestSource()
	gs := NewGraphService(source, testLogger(), Options{CacheTTL: time.Minute})

	_, err := gs.GetGraph(context.Background())
	require.NoError(t, err)
	_, err = gs.GetGraph(context.Background())
	require.NoError(t, err)

	// Second call was served from the cached snapshot.
	assert.Equal(t, int32(1), source.listCalls.Load())

	gs.Refresh()
	_, err = gs.GetGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.listCalls.Load())
}

func TestCacheDisabledRefetches(t *testing.T) {
	source := newTestSource()
	gs := NewGraphService(source, testLogger(), Options{})

	_, err := gs.GetGraph(context.Background())
	require.NoError(t, err)
	_, err = gs.GetGraph(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), source.listCalls.Load())
}
