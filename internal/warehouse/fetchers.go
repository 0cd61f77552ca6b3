package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/snowviz/snowviz-backend/internal/models"
	"github.com/snowviz/snowviz-backend/internal/pkg/metrics"
	"github.com/snowviz/snowviz-backend/internal/warehouse/specparse"
)

// Entity kind labels for fetch metrics.
const (
	fetchKindComputePools = "compute_pools"
	fetchKindServices     = "services"
	fetchKindPoolServices = "pool_services"
	fetchKindNotebooks    = "notebooks"
	fetchKindIntegrations = "integrations"
)

func (c *Client) observeFetch(kind string, start time.Time, err error) {
	metrics.FetchDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FetchFailuresTotal.WithLabelValues(kind).Inc()
	}
}

// ListComputePools fetches all compute pools.
func (c *Client) ListComputePools(ctx context.Context) ([]models.ComputePool, error) {
	start := time.Now()
	rows, err := c.runQuery(ctx, "SHOW COMPUTE POOLS")
	c.observeFetch(fetchKindComputePools, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list compute pools: %w", err)
	}

	pools := make([]models.ComputePool, 0, len(rows))
	for _, row := range rows {
		pools = append(pools, models.ComputePool{
			Name:            rowString(row, "name"),
			State:           rowString(row, "state"),
			MinNodes:        rowInt(row, "min_nodes"),
			MaxNodes:        rowInt(row, "max_nodes"),
			InstanceFamily:  rowString(row, "instance_family"),
			Owner:           rowString(row, "owner"),
			AutoResume:      rowBool(row, "auto_resume"),
			AutoSuspendSecs: rowInt(row, "auto_suspend_secs"),
			CreatedOn:       rowString(row, "created_on"),
		})
	}
	return pools, nil
}

// ListServices fetches the global service listing. The compute_pool column of
// this listing can be stale or ambiguous; the reconciler treats pool-scoped
// listings as authoritative.
func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	start := time.Now()
	rows, err := c.runQuery(ctx, "SHOW SERVICES")
	c.observeFetch(fetchKindServices, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return c.scanServices(ctx, rows), nil
}

// ListServicesInPool fetches services scoped to one compute pool. The scoped
// listing is the targeted, non-ambiguous source for pool attribution, so the
// pool name is stamped onto every record regardless of the row's own value.
func (c *Client) ListServicesInPool(ctx context.Context, pool string) ([]models.Service, error) {
	start := time.Now()
	rows, err := c.runQuery(ctx, "SHOW SERVICES IN COMPUTE POOL "+quoteIdent(pool))
	c.observeFetch(fetchKindPoolServices, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list services in pool %s: %w", pool, err)
	}

	services := c.scanServices(ctx, rows)
	for i := range services {
		services[i].ComputePool = pool
	}
	return services, nil
}

func (c *Client) scanServices(ctx context.Context, rows []map[string]interface{}) []models.Service {
	services := make([]models.Service, 0, len(rows))
	for _, row := range rows {
		svc := models.Service{
			Name:             rowString(row, "name"),
			DatabaseName:     rowString(row, "database_name"),
			SchemaName:       rowString(row, "schema_name"),
			Owner:            rowString(row, "owner"),
			ComputePool:      rowString(row, "compute_pool"),
			DNSName:          rowString(row, "dns_name"),
			Status:           rowString(row, "status"),
			CurrentInstances: rowInt(row, "current_instances"),
			TargetInstances:  rowInt(row, "target_instances"),
			MinInstances:     rowInt(row, "min_instances"),
			MaxInstances:     rowInt(row, "max_instances"),
		}
		svc.Integrations = c.ServiceIntegrations(ctx, svc.FQN())
		services = append(services, svc)
	}
	return services
}

// ServiceIntegrations returns the external access integration names referenced
// by a service's spec. Best-effort: a failed or unparseable DESCRIBE yields an
// empty list. Results are memoized per FQN, failures included, so a service
// that consistently fails to describe does not re-issue the query on every
// assembly; LRU eviction gives it another chance later.
func (c *Client) ServiceIntegrations(ctx context.Context, fqn string) []string {
	if names, ok := c.describeLRU.Get(fqn); ok {
		return names
	}

	rows, err := c.runQuery(ctx, "DESCRIBE SERVICE "+quoteFQN(fqn))
	if err != nil {
		c.log.Warn("describe service failed", "service", fqn, "error", err)
		// A canceled or timed-out request says nothing about the service.
		if ctx.Err() == nil {
			c.describeLRU.Add(fqn, nil)
		}
		return nil
	}

	var names []string
	for _, row := range rows {
		if spec := rowString(row, "spec"); spec != "" {
			names = specparse.Extract(spec)
			break
		}
	}
	c.describeLRU.Add(fqn, names)
	return names
}

// ListNotebooks fetches all notebooks.
func (c *Client) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	start := time.Now()
	rows, err := c.runQuery(ctx, "SHOW NOTEBOOKS")
	c.observeFetch(fetchKindNotebooks, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}

	notebooks := make([]models.Notebook, 0, len(rows))
	for _, row := range rows {
		notebooks = append(notebooks, models.Notebook{
			Name:            rowString(row, "name"),
			DatabaseName:    rowString(row, "database_name"),
			SchemaName:      rowString(row, "schema_name"),
			Owner:           rowString(row, "owner"),
			Comment:         rowString(row, "comment"),
			QueryWarehouse:  rowString(row, "query_warehouse"),
			IdleTimeoutSecs: rowInt(row, "idle_auto_shutdown_time_seconds"),
			CreatedOn:       rowString(row, "created_on"),
		})
	}
	return notebooks, nil
}

// ListIntegrations fetches all external access integrations.
func (c *Client) ListIntegrations(ctx context.Context) ([]models.ExternalAccessIntegration, error) {
	start := time.Now()
	rows, err := c.runQuery(ctx, "SHOW EXTERNAL ACCESS INTEGRATIONS")
	c.observeFetch(fetchKindIntegrations, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list external access integrations: %w", err)
	}

	integrations := make([]models.ExternalAccessIntegration, 0, len(rows))
	for _, row := range rows {
		integrations = append(integrations, models.ExternalAccessIntegration{
			Name:      rowString(row, "name"),
			Type:      rowString(row, "type"),
			Category:  rowString(row, "category"),
			Enabled:   rowBool(row, "enabled"),
			Comment:   rowString(row, "comment"),
			CreatedOn: rowString(row, "created_on"),
		})
	}
	return integrations, nil
}

// quoteFQN quotes each part of a database.schema.name identifier.
func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
