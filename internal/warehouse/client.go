// Package warehouse is the data-source adapter: it issues administrative
// listing and detail queries against the warehouse and returns normalized
// entity records. Every call is best-effort; callers treat a failed call as an
// empty slice, never as a fatal error.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
	sf "github.com/snowflakedb/gosnowflake"
	"golang.org/x/time/rate"

	"github.com/snowviz/snowviz-backend/internal/config"
)

// Client wraps a sqlx connection to the warehouse.
type Client struct {
	db           *sqlx.DB
	log          *slog.Logger
	limiter      *rate.Limiter // nil = unlimited
	debugQueries bool
	describeLRU  *lru.Cache[string, []string] // service FQN -> extracted integration names

	// runQuery is the query entry point used by the fetchers; queryRows in
	// production, swappable in tests.
	runQuery func(ctx context.Context, query string) ([]map[string]interface{}, error)
}

// NewClient opens a warehouse connection from config. The connection is lazy;
// the first query dials.
func NewClient(cfg *config.Config, log *slog.Logger) (*Client, error) {
	sfCfg := &sf.Config{
		Account:   cfg.Warehouse.Account,
		User:      cfg.Warehouse.User,
		Database:  cfg.Warehouse.Database,
		Schema:    cfg.Warehouse.Schema,
		Role:      cfg.Warehouse.Role,
		Warehouse: cfg.Warehouse.Warehouse,
	}
	if cfg.Warehouse.Token != "" {
		sfCfg.Authenticator = sf.AuthTypePat
		sfCfg.Token = cfg.Warehouse.Token
	} else {
		sfCfg.Password = cfg.Warehouse.Password
	}

	dsn, err := sf.DSN(sfCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build warehouse DSN: %w", err)
	}

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.QueryRatePerSec > 0 && cfg.QueryRateBurst > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QueryRatePerSec), cfg.QueryRateBurst)
	}

	size := cfg.DescribeCacheSize
	if size <= 0 {
		size = 256
	}
	describeLRU, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create describe cache: %w", err)
	}

	client := &Client{
		db:           db,
		log:          log,
		limiter:      limiter,
		debugQueries: cfg.DebugQueries,
		describeLRU:  describeLRU,
	}
	client.runQuery = client.queryRows
	return client, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies connectivity. Used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// queryRows runs an administrative query and returns each result row as a
// column-name-keyed map. Rate limiting and the verbatim debug log happen here
// so every outbound query goes through one choke point.
func (c *Client) queryRows(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.debugQueries {
		c.log.Info("executing warehouse query", "query", query)
	}

	rows, err := doWithRetryValue(ctx, defaultRetryAttempts, func() (*sqlx.Rows, error) {
		return c.db.QueryxContext(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
