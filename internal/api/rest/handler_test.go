package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowviz/snowviz-backend/internal/models"
)

type fakeGraphService struct {
	graph      *models.GraphData
	pools      []models.ComputePool
	services   []models.Service
	err        error
	refreshed  bool
	toggled    string
	setAllWith *bool
}

func (f *fakeGraphService) GetGraph(ctx context.Context) (*models.GraphData, error) {
	return f.graph, f.err
}

func (f *fakeGraphService) ListComputePools(ctx context.Context) ([]models.ComputePool, error) {
	return f.pools, f.err
}

func (f *fakeGraphService) ListServices(ctx context.Context) ([]models.Service, error) {
	return f.services, f.err
}

func (f *fakeGraphService) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	return nil, f.err
}

func (f *fakeGraphService) ListIntegrations(ctx context.Context) ([]models.ExternalAccessIntegration, error) {
	return nil, f.err
}

func (f *fakeGraphService) TogglePool(ctx context.Context, pool string) (*models.GraphData, error) {
	f.toggled = pool
	return f.graph, f.err
}

func (f *fakeGraphService) SetAllPools(ctx context.Context, collapsed bool) (*models.GraphData, error) {
	f.setAllWith = &collapsed
	return f.graph, f.err
}

func (f *fakeGraphService) Refresh() {
	f.refreshed = true
}

type fakePinger struct{ err error }

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

func testGraph() *models.GraphData {
	return &models.GraphData{
		Nodes: []models.GraphNode{
			{ID: "cp-POOL1", Kind: models.KindComputePool, Position: &models.Position{X: 760, Y: 100}},
		},
		Edges: []models.GraphEdge{},
		Pools: map[string]models.PoolView{
			"cp-POOL1": {Collapsed: false, VisibleServices: 0},
		},
		Meta: models.GraphMeta{NodeCount: 1, GeneratedAt: time.Now().UTC()},
	}
}

func newTestRouter(gs *fakeGraphService) *mux.Router {
	router := mux.NewRouter()
	SetupRoutes(router, NewHandler(gs, nil))
	return router
}

func doRequest(t *testing.T, router *mux.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetGraph(t *testing.T) {
	gs := &fakeGraphService{graph: testGraph()}
	rec := doRequest(t, newTestRouter(gs), http.MethodGet, "/graph")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body models.GraphData
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 1, len(body.Nodes))
	assert.Equal(t, "cp-POOL1", body.Nodes[0].ID)
	assert.Contains(t, body.Pools, "cp-POOL1")
}

func TestGetGraphError(t *testing.T) {
	gs := &fakeGraphService{err: errors.New("boom")}
	rec := doRequest(t, newTestRouter(gs), http.MethodGet, "/graph")

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "boom", body["error"])
}

func TestRefreshGraph(t *testing.T) {
	gs := &fakeGraphService{graph: testGraph()}
	rec := doRequest(t, newTestRouter(gs), http.MethodPost, "/graph/refresh")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gs.refreshed)
}

func TestTogglePool(t *testing.T) {
	gs := &fakeGraphService{graph: testGraph()}
	rec := doRequest(t, newTestRouter(gs), http.MethodPost, "/graph/pools/POOL1/toggle")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POOL1", gs.toggled)
}

func TestCollapseAllAndExpandAll(t *testing.T) {
	gs := &fakeGraphService{graph: testGraph()}
	router := newTestRouter(gs)

	rec := doRequest(t, router, http.MethodPost, "/graph/collapse-all")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gs.setAllWith)
	assert.True(t, *gs.setAllWith)

	rec = doRequest(t, router, http.MethodPost, "/graph/expand-all")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gs.setAllWith)
	assert.False(t, *gs.setAllWith)
}

func TestListComputePools(t *testing.T) {
	gs := &fakeGraphService{pools: []models.ComputePool{{Name: "POOL1", State: "ACTIVE"}}}
	rec := doRequest(t, newTestRouter(gs), http.MethodGet, "/compute-pools")

	require.Equal(t, http.StatusOK, rec.Code)

	var body []models.ComputePool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 1, len(body))
	assert.Equal(t, "POOL1", body[0].Name)
}

func TestListServices(t *testing.T) {
	gs := &fakeGraphService{services: []models.Service{
		{Name: "S1", DatabaseName: "A", SchemaName: "B", ComputePool: "POOL1"},
	}}
	rec := doRequest(t, newTestRouter(gs), http.MethodGet, "/services")

	require.Equal(t, http.StatusOK, rec.Code)

	var body []models.Service
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 1, len(body))
	assert.Equal(t, "POOL1", body[0].ComputePool)
}

func TestMethodNotAllowed(t *testing.T) {
	gs := &fakeGraphService{graph: testGraph()}
	rec := doRequest(t, newTestRouter(gs), http.MethodPost, "/graph")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthzAlwaysOK(t *testing.T) {
	h := NewHandler(&fakeGraphService{}, &fakePinger{err: errors.New("no route to host")})
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "unreachable", body["warehouse"])
}
