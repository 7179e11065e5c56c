package dynamo

import "time"

// Config holds configuration for the Driver.
type Config struct {
	// Table is the name of the documents table.
	// Default: "kennel_documents"
	Table string

	// ParentIndex is the GSI keyed by parent collection path.
	// Default: "parent-index"
	ParentIndex string

	// GroupIndex is the GSI keyed by sharded collection id, used by
	// collection group queries.
	// Default: "group-index"
	GroupIndex string

	// NumShards is the number of shards of the group index.
	// Higher values spread writes to one collection group over more
	// partitions but make every group query fan out to more queries.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int

	// MaxBatchSize is the largest number of updates one Commit accepts.
	// Default: 100 (the TransactWriteItems limit)
	MaxBatchSize int

	// PollInterval re-runs live queries periodically, picking up changes
	// made by other processes when no stream notifications are wired.
	// Default: 0 (disabled)
	PollInterval time.Duration
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		Table:        "kennel_documents",
		ParentIndex:  "parent-index",
		GroupIndex:   "group-index",
		NumShards:    1,
		MaxBatchSize: 100,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "kennel_documents"
	}
	if c.ParentIndex == "" {
		c.ParentIndex = "parent-index"
	}
	if c.GroupIndex == "" {
		c.GroupIndex = "group-index"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
	if c.MaxBatchSize < 1 || c.MaxBatchSize > 100 {
		c.MaxBatchSize = 100
	}
	if c.PollInterval < 0 {
		c.PollInterval = 0
	}
}
