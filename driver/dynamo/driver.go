// Package dynamo provides a store.Driver backed by a single DynamoDB table.
//
// Every document is one item keyed by its full path. Documents are found
// by collection through the parent index and by collection id through the
// sharded group index. Ordering is applied client side after the query.
//
// Index queries are eventually consistent; Get is strongly consistent.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/kennel/internal/shard"
	"github.com/jacentio/kennel/internal/watch"
	"github.com/jacentio/kennel/store"
)

// API is the subset of the DynamoDB client used by Driver.
// *dynamodb.Client implements it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var (
	_ API          = (*dynamodb.Client)(nil)
	_ store.Driver = (*Driver)(nil)
)

// Driver is a DynamoDB store.Driver. It is safe for concurrent use.
type Driver struct {
	api    API
	config Config
	hub    *watch.Hub
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Driver over api.
func New(api API, config Config, logger *slog.Logger) *Driver {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		api:    api,
		config: config,
		hub:    watch.NewHub(config.PollInterval, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Notify re-runs live queries that may contain ref. Call it for changes
// made by other processes, e.g. from a table stream.
func (d *Driver) Notify(ref store.DocumentRef) {
	d.hub.Notify(ref)
}

// Listeners returns the number of live queries.
func (d *Driver) Listeners() int { return d.hub.Len() }

// Close stops every live query.
func (d *Driver) Close() { d.hub.Close() }

// Get implements store.Driver.
func (d *Driver) Get(ctx context.Context, ref store.DocumentRef) (store.Document, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.config.Table),
		Key:            keyOf(ref),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return store.Document{}, mapError(err)
	}
	if out.Item == nil {
		return store.Document{}, store.Statusf(store.CodeNotFound, "no document at %s", ref)
	}
	doc, err := unmarshalItem(out.Item)
	if err != nil {
		return store.Document{}, &store.StatusError{Code: store.CodeDataLoss, Message: err.Error(), Err: err}
	}
	return doc, nil
}

// Query implements store.Driver.
func (d *Driver) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	if q.IsZero() {
		return nil, store.Statusf(store.CodeInvalidArgument, "query has no collection")
	}
	f, err := buildFilter(q.Filters())
	if err != nil {
		return nil, &store.StatusError{Code: store.CodeInvalidArgument, Message: err.Error(), Err: err}
	}

	var docs []store.Document
	if q.IsGroup() {
		docs, err = d.queryGroup(ctx, q.CollectionID(), f)
	} else {
		docs, err = d.queryIndex(ctx, d.config.ParentIndex, attrParent, q.Collection().Path(), f)
	}
	if err != nil {
		return nil, err
	}
	q.Sort(docs)
	return docs, nil
}

// queryGroup reads every shard of a collection group.
func (d *Driver) queryGroup(ctx context.Context, collectionID string, f filter) ([]store.Document, error) {
	keys := shard.GroupKeys(collectionID, d.config.NumShards)

	// Fast path for single shard (default)
	if len(keys) == 1 {
		return d.queryIndex(ctx, d.config.GroupIndex, attrGroup, keys[0], f)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu   sync.Mutex
		docs []store.Document
		wg   sync.WaitGroup
	)
	errs := make(chan error, len(keys))
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			part, err := d.queryIndex(ctx, d.config.GroupIndex, attrGroup, key, f)
			if err != nil {
				errs <- err
				cancel()
				return
			}
			mu.Lock()
			docs = append(docs, part...)
			mu.Unlock()
		}(key)
	}
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}
	return docs, nil
}

// queryIndex reads every item of index whose keyAttr equals key.
func (d *Driver) queryIndex(ctx context.Context, index, keyAttr, key string, f filter) ([]store.Document, error) {
	names := map[string]string{"#k": keyAttr}
	values := map[string]types.AttributeValue{
		":k": &types.AttributeValueMemberS{Value: key},
	}
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.config.Table),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#k = :k"),
	}
	if f.expr != "" {
		input.FilterExpression = aws.String(f.expr)
		for k, v := range f.names {
			names[k] = v
		}
		for k, v := range f.values {
			values[k] = v
		}
	}
	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values

	// Paginate through all results
	var docs []store.Document
	paginator := dynamodb.NewQueryPaginator(d.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, item := range page.Items {
			doc, err := unmarshalItem(item)
			if err != nil {
				return nil, &store.StatusError{Code: store.CodeDataLoss, Message: err.Error(), Err: err}
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Create implements store.Driver.
func (d *Driver) Create(ctx context.Context, ref store.DocumentRef, fields store.Fields) error {
	item, err := newItem(ref, fields, d.config.NumShards, d.now())
	if err != nil {
		return &store.StatusError{Code: store.CodeInvalidArgument, Message: err.Error(), Err: err}
	}
	_, err = d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(d.config.Table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#path)"),
		ExpressionAttributeNames: map[string]string{"#path": attrPath},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return store.Statusf(store.CodeAlreadyExists, "document %s already exists", ref)
		}
		return mapError(err)
	}
	d.hub.Notify(ref)
	return nil
}

// Set implements store.Driver. Creation time and version survive overwrites.
func (d *Driver) Set(ctx context.Context, ref store.DocumentRef, fields store.Fields) error {
	f, err := marshalFields(fields)
	if err != nil {
		return &store.StatusError{Code: store.CodeInvalidArgument, Message: err.Error(), Err: err}
	}
	parent, group := indexAttrs(ref, d.config.NumShards)
	_, err = d.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.config.Table),
		Key:       keyOf(ref),
		UpdateExpression: aws.String("SET #fields = :fields, #parent = :parent, #group = :group, " +
			"#updated_at = :now, #created_at = if_not_exists(#created_at, :now), " +
			"#version = if_not_exists(#version, :zero) + :one"),
		ExpressionAttributeNames: map[string]string{
			"#fields":     attrFields,
			"#parent":     attrParent,
			"#group":      attrGroup,
			"#created_at": attrCreatedAt,
			"#updated_at": attrUpdatedAt,
			"#version":    attrVersion,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fields": f,
			":parent": &types.AttributeValueMemberS{Value: parent},
			":group":  &types.AttributeValueMemberS{Value: group},
			":now":    &types.AttributeValueMemberS{Value: FormatTime(d.now())},
			":zero":   &types.AttributeValueMemberN{Value: "0"},
			":one":    &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return mapError(err)
	}
	d.hub.Notify(ref)
	return nil
}

// Delete implements store.Driver.
func (d *Driver) Delete(ctx context.Context, ref store.DocumentRef) error {
	_, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.config.Table),
		Key:       keyOf(ref),
	})
	if err != nil {
		return mapError(err)
	}
	d.hub.Notify(ref)
	return nil
}

// Commit implements store.Driver with a single TransactWriteItems call.
// Updates to the same document are merged, later fields winning.
func (d *Driver) Commit(ctx context.Context, updates []store.Update) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > d.config.MaxBatchSize {
		return store.Statusf(store.CodeInvalidArgument,
			"batch of %d updates exceeds the limit of %d", len(updates), d.config.MaxBatchSize)
	}

	merged := mergeUpdates(updates)
	now := FormatTime(d.now())
	items := make([]types.TransactWriteItem, 0, len(merged))
	refs := make([]store.DocumentRef, 0, len(merged))
	for _, u := range merged {
		update, err := d.updateItem(u, now)
		if err != nil {
			return &store.StatusError{Code: store.CodeInvalidArgument, Message: err.Error(), Err: err}
		}
		items = append(items, types.TransactWriteItem{Update: update})
		refs = append(refs, u.Ref)
	}

	_, err := d.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return mapCommitError(err, refs)
	}

	d.logger.Debug("batch committed", "table", d.config.Table, "documents", len(refs))
	for _, ref := range refs {
		d.hub.Notify(ref)
	}
	return nil
}

// updateItem builds the transactional update merging u's fields into an
// existing document.
func (d *Driver) updateItem(u store.Update, now string) (*types.Update, error) {
	names := map[string]string{
		"#path":       attrPath,
		"#fields":     attrFields,
		"#updated_at": attrUpdatedAt,
		"#version":    attrVersion,
	}
	values := map[string]types.AttributeValue{
		":now":  &types.AttributeValueMemberS{Value: now},
		":zero": &types.AttributeValueMemberN{Value: "0"},
		":one":  &types.AttributeValueMemberN{Value: "1"},
	}

	setClauses := make([]string, 0, len(u.Fields)+2)
	i := 0
	for k, v := range u.Fields {
		av, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", u.Ref, k, err)
		}
		nameKey := fmt.Sprintf("#a%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		names[nameKey] = k
		values[valueKey] = av
		setClauses = append(setClauses, fmt.Sprintf("#fields.%s = %s", nameKey, valueKey))
		i++
	}
	setClauses = append(setClauses, "#updated_at = :now", "#version = if_not_exists(#version, :zero) + :one")

	return &types.Update{
		TableName:                 aws.String(d.config.Table),
		Key:                       keyOf(u.Ref),
		UpdateExpression:          aws.String("SET " + strings.Join(setClauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#path)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}, nil
}

// Listen implements store.Driver. Live queries are re-run after writes made
// through this driver, on Notify, and every PollInterval if set.
func (d *Driver) Listen(ctx context.Context, q store.Query, fn store.SnapshotFunc) (store.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapError(err)
	}
	if q.IsZero() {
		return nil, store.Statusf(store.CodeInvalidArgument, "query has no collection")
	}
	return d.hub.Register(q, func(ctx context.Context) ([]store.Document, error) {
		return d.Query(ctx, q)
	}, fn), nil
}

// mergeUpdates combines updates to the same document, keeping the order in
// which documents first appear.
func mergeUpdates(updates []store.Update) []store.Update {
	index := make(map[string]int, len(updates))
	merged := make([]store.Update, 0, len(updates))
	for _, u := range updates {
		i, ok := index[u.Ref.Path()]
		if !ok {
			index[u.Ref.Path()] = len(merged)
			merged = append(merged, store.Update{Ref: u.Ref, Fields: u.Fields.Clone()})
			continue
		}
		for k, v := range u.Fields {
			merged[i].Fields[k] = v
		}
	}
	return merged
}

// filter is a compiled filter expression.
type filter struct {
	expr   string
	names  map[string]string
	values map[string]types.AttributeValue
}

// buildFilter compiles equality filters on document fields.
func buildFilter(filters []store.Filter) (filter, error) {
	if len(filters) == 0 {
		return filter{}, nil
	}
	f := filter{
		names:  map[string]string{"#fields": attrFields},
		values: make(map[string]types.AttributeValue, len(filters)),
	}
	clauses := make([]string, 0, len(filters))
	for i, flt := range filters {
		av, err := marshalValue(flt.Value)
		if err != nil {
			return filter{}, fmt.Errorf("filter on %q: %w", flt.Field, err)
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":f%d", i)
		f.names[nameKey] = flt.Field
		f.values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("#fields.%s = %s", nameKey, valueKey))
	}
	f.expr = strings.Join(clauses, " AND ")
	return f, nil
}
