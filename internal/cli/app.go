package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"

	"github.com/jacentio/kennel/client"
	"github.com/jacentio/kennel/config"
	"github.com/jacentio/kennel/driver/dynamo"
	"github.com/jacentio/kennel/driver/memstore"
	"github.com/jacentio/kennel/internal/logging"
	"github.com/jacentio/kennel/store"
	"github.com/jacentio/kennel/stream"
)

// app holds everything a command needs.
type app struct {
	config *config.Config
	logger *slog.Logger
	driver store.Driver
	client *client.Client

	// dynamo is set for the DynamoDB driver.
	dynamo  *dynamo.Driver
	aws     aws.Config
	closers []func()
}

// openDriver builds the configured store driver. Tests replace it.
var openDriver = func(ctx context.Context, a *app) error {
	switch a.config.Driver {
	case config.DriverMemory:
		d := memstore.New(a.config.MemoryDriverConfig(), a.logger)
		a.driver = d
		a.closers = append(a.closers, d.Close)
		return nil
	case config.DriverDynamoDB:
		awsCfg, err := loadAWSConfig(ctx, a.config.DynamoDB)
		if err != nil {
			return err
		}
		d := dynamo.New(newDynamoClient(awsCfg, a.config.DynamoDB), a.config.DynamoDriverConfig(), a.logger)
		a.aws = awsCfg
		a.dynamo = d
		a.driver = d
		a.closers = append(a.closers, d.Close)
		return nil
	}
	return fmt.Errorf("unknown driver %q", a.config.Driver)
}

// newApp loads the configuration and opens the store.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if driverName != "" {
		cfg.Driver = driverName
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if verboseLogs {
		cfg.Logging.Level = "debug"
	}

	a := &app{
		config: cfg,
		logger: logging.New(cfg.Logging, rootCmd.Version),
	}
	if err := openDriver(ctx, a); err != nil {
		return nil, err
	}
	a.client = client.New(a.driver, cfg.StoreConfig(), a.logger)
	return a, nil
}

// Close releases the store.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// startStream tails the table stream into the DynamoDB driver so live
// queries see changes made by other processes. It is a no-op unless the
// stream is enabled.
func (a *app) startStream(ctx context.Context) error {
	if a.dynamo == nil || !a.config.Stream.Enabled {
		return nil
	}
	arn, err := dynamo.StreamARN(ctx, newDynamoClient(a.aws, a.config.DynamoDB), a.config.DynamoDB.Table)
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	streams := dynamodbstreams.NewFromConfig(a.aws, func(o *dynamodbstreams.Options) {
		if a.config.DynamoDB.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.config.DynamoDB.Endpoint)
		}
	})
	tailer := stream.NewTailer(streams, arn, stream.NewHandler(a.dynamo, a.logger), a.config.TailerConfig(), a.logger)
	go func() {
		if err := tailer.Run(ctx); err != nil {
			a.logger.Error("stream tailer stopped", "stream", arn, "error", err)
		}
	}()
	return nil
}

func loadAWSConfig(ctx context.Context, cfg config.DynamoDBConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}

func newDynamoClient(awsCfg aws.Config, cfg config.DynamoDBConfig) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
}
