package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int      `mapstructure:"port"`
	LogLevel           string   `mapstructure:"log_level"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"`  // HTTP read/write; 0 = server default
	FetchTimeoutSec    int      `mapstructure:"fetch_timeout_sec"`    // Graph assembly context timeout
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"` // Graceful shutdown wait
	FetchWorkers       int      `mapstructure:"fetch_workers"`        // Max concurrent per-pool service listings
	GraphCacheTTLSec   int      `mapstructure:"graph_cache_ttl_sec"`  // Assembled-graph cache TTL; 0 = cache disabled
	QueryRatePerSec    float64  `mapstructure:"query_rate_per_sec"`   // Token bucket rate for warehouse queries; 0 = no limit
	QueryRateBurst     int      `mapstructure:"query_rate_burst"`     // Token bucket burst; 0 = no limit
	DescribeCacheSize  int      `mapstructure:"describe_cache_size"`  // LRU entries for DESCRIBE SERVICE results
	DebugQueries       bool     `mapstructure:"debug_queries"`        // Log every warehouse query verbatim before execution

	Warehouse WarehouseConfig `mapstructure:"warehouse"`
}

// WarehouseConfig holds warehouse connection parameters. Password and token
// come from SNOWVIZ_WAREHOUSE_PASSWORD / SNOWVIZ_WAREHOUSE_TOKEN, not the
// config file.
type WarehouseConfig struct {
	Account   string `mapstructure:"account"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Token     string `mapstructure:"token"` // programmatic access token; takes precedence over password
	Database  string `mapstructure:"database"`
	Schema    string `mapstructure:"schema"`
	Role      string `mapstructure:"role"`
	Warehouse string `mapstructure:"warehouse"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/snowviz/")
	viper.AddConfigPath("$HOME/.snowviz")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("fetch_timeout_sec", 60)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("fetch_workers", 8)
	viper.SetDefault("graph_cache_ttl_sec", 30)
	viper.SetDefault("query_rate_per_sec", 0) // 0 = disabled
	viper.SetDefault("query_rate_burst", 0)
	viper.SetDefault("describe_cache_size", 256)
	viper.SetDefault("debug_queries", false)
	viper.SetDefault("warehouse.database", "SNOWFLAKE")
	viper.SetDefault("warehouse.schema", "ACCOUNT_USAGE")
	viper.SetDefault("warehouse.role", "ACCOUNTADMIN")
	viper.SetDefault("warehouse.warehouse", "COMPUTE_WH")

	// Environment variables (SNOWVIZ_PORT, SNOWVIZ_WAREHOUSE_ACCOUNT, ...)
	viper.SetEnvPrefix("SNOWVIZ")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
