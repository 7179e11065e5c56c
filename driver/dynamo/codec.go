package dynamo

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/kennel/internal/shard"
	"github.com/jacentio/kennel/store"
)

// Item attribute names.
const (
	attrPath      = "path"
	attrParent    = "parent"
	attrGroup     = "group"
	attrFields    = "fields"
	attrCreatedAt = "created_at"
	attrUpdatedAt = "updated_at"
	attrVersion   = "version"
)

// TimeLayout is the fixed width UTC layout timestamps are stored in, so
// that their string order is their chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime formats t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// encodeValue prepares a field value for marshaling. Timestamps become
// TimeLayout strings; containers are converted recursively.
func encodeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return FormatTime(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = encodeValue(e)
		}
		return out
	case store.Fields:
		return encodeValue(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = encodeValue(e)
		}
		return out
	}
	return v
}

// marshalValue encodes a single field value.
func marshalValue(v any) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(encodeValue(v))
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return av, nil
}

// marshalFields encodes document fields as a map attribute.
func marshalFields(fields store.Fields) (types.AttributeValue, error) {
	m, err := attributevalue.MarshalMap(encodeValue(map[string]any(fields)))
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	return &types.AttributeValueMemberM{Value: m}, nil
}

// keyOf returns the primary key of the item stored at ref.
func keyOf(ref store.DocumentRef) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPath: &types.AttributeValueMemberS{Value: ref.Path()},
	}
}

// indexAttrs returns the index attributes of the item stored at ref.
func indexAttrs(ref store.DocumentRef, numShards int) (parent, group string) {
	coll := ref.Parent()
	return coll.Path(), shard.GroupKey(coll.ID(), ref.Path(), numShards)
}

// newItem builds the full item for a document written at now.
func newItem(ref store.DocumentRef, fields store.Fields, numShards int, now time.Time) (map[string]types.AttributeValue, error) {
	f, err := marshalFields(fields)
	if err != nil {
		return nil, err
	}
	parent, group := indexAttrs(ref, numShards)
	ts := FormatTime(now)
	return map[string]types.AttributeValue{
		attrPath:      &types.AttributeValueMemberS{Value: ref.Path()},
		attrParent:    &types.AttributeValueMemberS{Value: parent},
		attrGroup:     &types.AttributeValueMemberS{Value: group},
		attrFields:    f,
		attrCreatedAt: &types.AttributeValueMemberS{Value: ts},
		attrUpdatedAt: &types.AttributeValueMemberS{Value: ts},
		attrVersion:   &types.AttributeValueMemberN{Value: "1"},
	}, nil
}

// unmarshalItem decodes a stored item into a document.
func unmarshalItem(item map[string]types.AttributeValue) (store.Document, error) {
	pathAttr, ok := item[attrPath].(*types.AttributeValueMemberS)
	if !ok {
		return store.Document{}, fmt.Errorf("item has no %s attribute", attrPath)
	}
	ref, err := store.ParseDocumentRef(pathAttr.Value)
	if err != nil {
		return store.Document{}, err
	}

	fields := store.Fields{}
	if m, ok := item[attrFields].(*types.AttributeValueMemberM); ok {
		if err := attributevalue.UnmarshalMap(m.Value, &fields); err != nil {
			return store.Document{}, fmt.Errorf("unmarshal %s: %w", ref, err)
		}
	}
	return store.Document{Ref: ref, Fields: fields}, nil
}
