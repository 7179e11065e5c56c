package store

// Config holds configuration for the Store.
type Config struct {
	// SnapshotBuffer is the number of decoded snapshots a subscription may
	// hold before delivery waits for the consumer.
	// Default: 1
	// Max: 64
	SnapshotBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SnapshotBuffer: 1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.SnapshotBuffer < 1 {
		c.SnapshotBuffer = 1
	}
	if c.SnapshotBuffer > 64 {
		c.SnapshotBuffer = 64
	}
}
