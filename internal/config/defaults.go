package config

import "time"

// Default values applied to any unset Config field.  Numbers mirror the
// production cadence of the jobs: 8 extraction workers, 500-row sink batches,
// progress logs every 100 completions, 1024-dim embeddings with 2000/200
// token windows.
const (
	DefaultWorkers          = 8
	DefaultBatchSize        = 500
	DefaultProgressInterval = 100

	DefaultEmbeddingDim  = 1024
	DefaultChunkTokens   = 2000
	DefaultOverlapTokens = 200

	DefaultDownloadTimeout = 30 * time.Minute
	DefaultNavTimeout      = 60 * time.Second
)

// ApplyDefaults fills in zero-valued fields of cfg in place.
func ApplyDefaults(cfg *Config) {
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "require"
	}
	if cfg.Database.Table == "" {
		cfg.Database.Table = "epo_records"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 4
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if cfg.Store.Region == "" {
		cfg.Store.Region = "ap-south-1"
	}

	if cfg.Browser.DownloadDir == "" {
		cfg.Browser.DownloadDir = "./downloads"
	}
	if cfg.Browser.NavTimeout == 0 {
		cfg.Browser.NavTimeout = DefaultNavTimeout
	}
	if cfg.Browser.DownloadTimeout == 0 {
		cfg.Browser.DownloadTimeout = DefaultDownloadTimeout
	}
	if cfg.Browser.EPOProductURL == "" {
		cfg.Browser.EPOProductURL = "https://publication-bdds.apps.epo.org/raw-data/products/public/product/32"
	}
	if cfg.Browser.USPTODatasetURL == "" {
		cfg.Browser.USPTODatasetURL = "https://data.uspto.gov/bulkdata/datasets/ptgrxml"
	}

	if cfg.Embedding.Dim == 0 {
		cfg.Embedding.Dim = DefaultEmbeddingDim
	}
	if cfg.Embedding.ChunkTokens == 0 {
		cfg.Embedding.ChunkTokens = DefaultChunkTokens
	}
	if cfg.Embedding.OverlapTokens == 0 {
		cfg.Embedding.OverlapTokens = DefaultOverlapTokens
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 5 * time.Minute
	}

	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = DefaultWorkers
	}
	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = DefaultBatchSize
	}
	if cfg.Pipeline.ProgressInterval == 0 {
		cfg.Pipeline.ProgressInterval = DefaultProgressInterval
	}

	if cfg.Metrics.JobLabel == "" {
		cfg.Metrics.JobLabel = "patent_etl"
	}
}
