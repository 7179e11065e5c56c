package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// StreamsAPI is the subset of the DynamoDB Streams client used by Tailer.
// *dynamodbstreams.Client implements it.
type StreamsAPI interface {
	DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

var _ StreamsAPI = (*dynamodbstreams.Client)(nil)

// TailerConfig holds configuration for a Tailer.
type TailerConfig struct {
	// PollInterval is the pause between reads of one shard.
	// Default: 1s
	PollInterval time.Duration

	// RefreshInterval is how often the stream is checked for new shards.
	// Default: 1m
	RefreshInterval time.Duration
}

// DefaultTailerConfig returns the default tailer configuration.
func DefaultTailerConfig() TailerConfig {
	return TailerConfig{
		PollInterval:    time.Second,
		RefreshInterval: time.Minute,
	}
}

func (c *TailerConfig) validate() {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = time.Minute
	}
}

// Tailer reads a table stream and passes its records to a Handler.
//
// Shards open when Run starts are read from their latest record; shards
// appearing later are read from their beginning.
type Tailer struct {
	api       StreamsAPI
	streamARN string
	handler   *Handler
	config    TailerConfig
	logger    *slog.Logger

	// shardsMu protects shards
	shardsMu sync.Mutex
	shards   map[string]bool
}

// NewTailer creates a Tailer for the stream streamARN.
func NewTailer(api StreamsAPI, streamARN string, handler *Handler, config TailerConfig, logger *slog.Logger) *Tailer {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Tailer{
		api:       api,
		streamARN: streamARN,
		handler:   handler,
		config:    config,
		logger:    logger,
		shards:    make(map[string]bool),
	}
}

// Run tails the stream until ctx is done. It fails only if the stream
// cannot be described at startup.
func (t *Tailer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	if err := t.discover(ctx, &wg, types.ShardIteratorTypeLatest); err != nil {
		return err
	}

	ticker := time.NewTicker(t.config.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := t.discover(ctx, &wg, types.ShardIteratorTypeTrimHorizon); err != nil {
				t.logger.Warn("failed to refresh stream shards", "stream", t.streamARN, "error", err)
			}
		}
	}
}

// discover starts a reader for every open shard not yet being read.
func (t *Tailer) discover(ctx context.Context, wg *sync.WaitGroup, from types.ShardIteratorType) error {
	var start *string
	for {
		out, err := t.api.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             aws.String(t.streamARN),
			ExclusiveStartShardId: start,
		})
		if err != nil {
			return err
		}
		if out.StreamDescription == nil {
			return nil
		}
		for _, sh := range out.StreamDescription.Shards {
			if sh.ShardId == nil || closed(sh) || !t.claim(*sh.ShardId) {
				continue
			}
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				t.tail(ctx, id, from)
			}(*sh.ShardId)
		}
		start = out.StreamDescription.LastEvaluatedShardId
		if start == nil {
			return nil
		}
	}
}

func closed(sh types.Shard) bool {
	return sh.SequenceNumberRange != nil && sh.SequenceNumberRange.EndingSequenceNumber != nil
}

// claim marks a shard as read, reporting whether it was new.
func (t *Tailer) claim(id string) bool {
	t.shardsMu.Lock()
	defer t.shardsMu.Unlock()
	if t.shards[id] {
		return false
	}
	t.shards[id] = true
	return true
}

// tail reads one shard until it closes or ctx is done.
func (t *Tailer) tail(ctx context.Context, shardID string, from types.ShardIteratorType) {
	t.logger.Debug("tailing stream shard", "shard", shardID, "from", string(from))

	var iterator *string
	for {
		if iterator == nil {
			out, err := t.api.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
				StreamArn:         aws.String(t.streamARN),
				ShardId:           aws.String(shardID),
				ShardIteratorType: from,
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				t.logger.Warn("failed to get shard iterator", "shard", shardID, "error", err)
				if !t.sleep(ctx) {
					return
				}
				continue
			}
			iterator = out.ShardIterator
			if iterator == nil {
				return
			}
		}

		out, err := t.api.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{ShardIterator: iterator})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Warn("failed to read stream records", "shard", shardID, "error", err)
			// Expired or invalid iterators are replaced by a fresh one.
			iterator = nil
			from = types.ShardIteratorTypeLatest
			if !t.sleep(ctx) {
				return
			}
			continue
		}

		if len(out.Records) > 0 {
			if err := t.handler.HandleChanges(ctx, ToEvent(out.Records)); err != nil {
				return
			}
		}
		if out.NextShardIterator == nil {
			t.logger.Debug("stream shard closed", "shard", shardID)
			return
		}
		iterator = out.NextShardIterator
		if !t.sleep(ctx) {
			return
		}
	}
}

func (t *Tailer) sleep(ctx context.Context) bool {
	timer := time.NewTimer(t.config.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ToEvent converts stream records into the event delivered to Lambda
// stream handlers.
func ToEvent(records []types.Record) events.DynamoDBEvent {
	event := events.DynamoDBEvent{Records: make([]events.DynamoDBEventRecord, 0, len(records))}
	for _, r := range records {
		rec := events.DynamoDBEventRecord{
			EventID:     aws.ToString(r.EventID),
			EventName:   string(r.EventName),
			EventSource: aws.ToString(r.EventSource),
		}
		if r.Dynamodb != nil {
			rec.Change = events.DynamoDBStreamRecord{
				Keys:           convertImage(r.Dynamodb.Keys),
				NewImage:       convertImage(r.Dynamodb.NewImage),
				OldImage:       convertImage(r.Dynamodb.OldImage),
				SequenceNumber: aws.ToString(r.Dynamodb.SequenceNumber),
				StreamViewType: string(r.Dynamodb.StreamViewType),
			}
		}
		event.Records = append(event.Records, rec)
	}
	return event
}

func convertImage(image map[string]types.AttributeValue) map[string]events.DynamoDBAttributeValue {
	if image == nil {
		return nil
	}
	out := make(map[string]events.DynamoDBAttributeValue, len(image))
	for k, v := range image {
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(v types.AttributeValue) events.DynamoDBAttributeValue {
	switch x := v.(type) {
	case *types.AttributeValueMemberS:
		return events.NewStringAttribute(x.Value)
	case *types.AttributeValueMemberN:
		return events.NewNumberAttribute(x.Value)
	case *types.AttributeValueMemberB:
		return events.NewBinaryAttribute(x.Value)
	case *types.AttributeValueMemberBOOL:
		return events.NewBooleanAttribute(x.Value)
	case *types.AttributeValueMemberSS:
		return events.NewStringSetAttribute(x.Value)
	case *types.AttributeValueMemberNS:
		return events.NewNumberSetAttribute(x.Value)
	case *types.AttributeValueMemberBS:
		return events.NewBinarySetAttribute(x.Value)
	case *types.AttributeValueMemberL:
		list := make([]events.DynamoDBAttributeValue, len(x.Value))
		for i, e := range x.Value {
			list[i] = convertValue(e)
		}
		return events.NewListAttribute(list)
	case *types.AttributeValueMemberM:
		return events.NewMapAttribute(convertImage(x.Value))
	}
	return events.NewNullAttribute()
}
