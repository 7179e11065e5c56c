// Package config loads the kennel process configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jacentio/kennel/driver/dynamo"
	"github.com/jacentio/kennel/driver/memstore"
	"github.com/jacentio/kennel/store"
	"github.com/jacentio/kennel/stream"
)

// Driver names.
const (
	DriverMemory   = "memory"
	DriverDynamoDB = "dynamodb"
)

// ErrInvalid is returned when the configuration fails validation.
var ErrInvalid = errors.New("kennel: invalid configuration")

// Config is the process configuration.
type Config struct {
	Driver   string         `yaml:"driver"`
	Store    StoreConfig    `yaml:"store"`
	Memory   MemoryConfig   `yaml:"memory"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Stream   StreamConfig   `yaml:"stream"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StoreConfig configures the typed access layer.
type StoreConfig struct {
	SnapshotBuffer int `yaml:"snapshot_buffer"`
}

// MemoryConfig configures the in-memory driver.
type MemoryConfig struct {
	MaxBatchSize int `yaml:"max_batch_size"`
}

// DynamoDBConfig configures the DynamoDB driver and its client.
type DynamoDBConfig struct {
	Region       string        `yaml:"region"`
	Profile      string        `yaml:"profile"`
	Endpoint     string        `yaml:"endpoint"`
	Table        string        `yaml:"table"`
	ParentIndex  string        `yaml:"parent_index"`
	GroupIndex   string        `yaml:"group_index"`
	NumShards    int           `yaml:"num_shards"`
	MaxBatchSize int           `yaml:"max_batch_size"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// StreamConfig configures tailing the table stream for live updates.
type StreamConfig struct {
	Enabled         bool          `yaml:"enabled"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	d := dynamo.DefaultConfig()
	t := stream.DefaultTailerConfig()
	return &Config{
		Driver: DriverDynamoDB,
		Store: StoreConfig{
			SnapshotBuffer: store.DefaultConfig().SnapshotBuffer,
		},
		Memory: MemoryConfig{
			MaxBatchSize: memstore.DefaultConfig().MaxBatchSize,
		},
		DynamoDB: DynamoDBConfig{
			Table:        d.Table,
			ParentIndex:  d.ParentIndex,
			GroupIndex:   d.GroupIndex,
			NumShards:    d.NumShards,
			MaxBatchSize: d.MaxBatchSize,
		},
		Stream: StreamConfig{
			PollInterval:    t.PollInterval,
			RefreshInterval: t.RefreshInterval,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies KENNEL_*
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("KENNEL_DRIVER"); v != "" {
		cfg.Driver = v
	}

	// DynamoDB
	if v := os.Getenv("KENNEL_DYNAMODB_REGION"); v != "" {
		cfg.DynamoDB.Region = v
	}
	if v := os.Getenv("KENNEL_DYNAMODB_PROFILE"); v != "" {
		cfg.DynamoDB.Profile = v
	}
	if v := os.Getenv("KENNEL_DYNAMODB_ENDPOINT"); v != "" {
		cfg.DynamoDB.Endpoint = v
	}
	if v := os.Getenv("KENNEL_DYNAMODB_TABLE"); v != "" {
		cfg.DynamoDB.Table = v
	}
	if v := os.Getenv("KENNEL_DYNAMODB_NUM_SHARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: KENNEL_DYNAMODB_NUM_SHARDS: %w", ErrInvalid, err)
		}
		cfg.DynamoDB.NumShards = n
	}

	// Stream
	if v := os.Getenv("KENNEL_STREAM_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: KENNEL_STREAM_ENABLED: %w", ErrInvalid, err)
		}
		cfg.Stream.Enabled = b
	}

	// Logging
	if v := os.Getenv("KENNEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("KENNEL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory, DriverDynamoDB:
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalid, c.Driver)
	}
	if c.Driver == DriverDynamoDB && c.DynamoDB.Table == "" {
		return fmt.Errorf("%w: dynamodb.table is required", ErrInvalid)
	}
	if c.DynamoDB.NumShards < 0 || c.DynamoDB.NumShards > 256 {
		return fmt.Errorf("%w: dynamodb.num_shards must be at most 256", ErrInvalid)
	}
	if c.Stream.Enabled && c.Driver != DriverDynamoDB {
		return fmt.Errorf("%w: stream requires the dynamodb driver", ErrInvalid)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

// StoreConfig returns the access layer configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{SnapshotBuffer: c.Store.SnapshotBuffer}
}

// MemoryDriverConfig returns the in-memory driver configuration.
func (c *Config) MemoryDriverConfig() memstore.Config {
	return memstore.Config{MaxBatchSize: c.Memory.MaxBatchSize}
}

// DynamoDriverConfig returns the DynamoDB driver configuration.
func (c *Config) DynamoDriverConfig() dynamo.Config {
	return dynamo.Config{
		Table:        c.DynamoDB.Table,
		ParentIndex:  c.DynamoDB.ParentIndex,
		GroupIndex:   c.DynamoDB.GroupIndex,
		NumShards:    c.DynamoDB.NumShards,
		MaxBatchSize: c.DynamoDB.MaxBatchSize,
		PollInterval: c.DynamoDB.PollInterval,
	}
}

// TailerConfig returns the stream tailer configuration.
func (c *Config) TailerConfig() stream.TailerConfig {
	return stream.TailerConfig{
		PollInterval:    c.Stream.PollInterval,
		RefreshInterval: c.Stream.RefreshInterval,
	}
}
