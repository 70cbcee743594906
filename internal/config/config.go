// Package config defines all configuration structures for the patent-etl
// batch jobs.  No I/O or parsing logic lives here, only plain data types and
// validation; loading is in loader.go.
package config

import (
	"fmt"
	"time"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
)

// StoreConfig holds object-store (S3-compatible) connection parameters.
type StoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`

	// EPOBucket and USPTOBucket are the two archive buckets; each job reads
	// and writes exactly one of them.
	EPOBucket   string `mapstructure:"epo_bucket"`
	USPTOBucket string `mapstructure:"uspto_bucket"`
}

// DatabaseConfig holds PostgreSQL sink parameters.  The target table schema
// is pre-existing; these jobs never create or migrate it.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Table           string        `mapstructure:"table"`
	MaxConns        int           `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BrowserConfig holds headless-browser parameters for archive discovery.
type BrowserConfig struct {
	// DownloadDir receives browser downloads before upload to the store.
	DownloadDir     string        `mapstructure:"download_dir"`
	Headless        bool          `mapstructure:"headless"`
	UserAgent       string        `mapstructure:"user_agent"`
	NavTimeout      time.Duration `mapstructure:"nav_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	EPOProductURL   string        `mapstructure:"epo_product_url"`
	USPTODatasetURL string        `mapstructure:"uspto_dataset_url"`
}

// EmbeddingConfig holds text-embedding parameters.
type EmbeddingConfig struct {
	// Enabled turns the embedding column on for the epo-parquet job.
	Enabled bool `mapstructure:"enabled"`

	// BaseURL of the encoder HTTP service; Model is the served model name.
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Dim is the vector dimension; ChunkTokens/OverlapTokens control the
	// sliding-window chunking of long documents.
	Dim           int `mapstructure:"dim"`
	ChunkTokens   int `mapstructure:"chunk_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`
}

// PipelineConfig holds worker-pool and batching parameters.
type PipelineConfig struct {
	Workers          int `mapstructure:"workers"`
	BatchSize        int `mapstructure:"batch_size"`
	ProgressInterval int `mapstructure:"progress_interval"`
}

// MetricsConfig holds Prometheus Pushgateway parameters.  Batch jobs expose
// no scrape endpoint, so counters are pushed at job end when a gateway URL
// is configured.
type MetricsConfig struct {
	PushGatewayURL string `mapstructure:"push_gateway_url"`
	JobLabel       string `mapstructure:"job_label"`
}

// Config is the root configuration for all jobs.
type Config struct {
	Store     StoreConfig       `mapstructure:"store"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Browser   BrowserConfig     `mapstructure:"browser"`
	Embedding EmbeddingConfig   `mapstructure:"embedding"`
	Pipeline  PipelineConfig    `mapstructure:"pipeline"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Log       logging.LogConfig `mapstructure:"log"`
}

// Validate performs semantic validation of a fully-populated Config.  It
// returns the first error found; any error is fatal at startup.
func (c *Config) Validate() error {
	if c.Store.Endpoint == "" {
		return fmt.Errorf("config: store.endpoint must be set")
	}
	if c.Store.EPOBucket == "" && c.Store.USPTOBucket == "" {
		return fmt.Errorf("config: at least one of store.epo_bucket / store.uspto_bucket must be set")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [0, 65535]", c.Database.Port)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: pipeline.workers must be >= 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("config: pipeline.batch_size must be >= 1, got %d", c.Pipeline.BatchSize)
	}
	if c.Embedding.Enabled {
		if c.Embedding.Dim < 1 {
			return fmt.Errorf("config: embedding.dim must be >= 1, got %d", c.Embedding.Dim)
		}
		if c.Embedding.OverlapTokens >= c.Embedding.ChunkTokens {
			return fmt.Errorf("config: embedding.overlap_tokens (%d) must be smaller than chunk_tokens (%d)",
				c.Embedding.OverlapTokens, c.Embedding.ChunkTokens)
		}
	}
	return nil
}
