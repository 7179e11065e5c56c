// Package stream feeds table stream records into live queries.
//
// Handler can run as an AWS Lambda function subscribed to the table stream,
// or in process behind a Tailer that reads the stream directly.
package stream

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/kennel/store"
)

// Stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// Item attributes read from stream records.
const (
	pathAttr    = "path"
	versionAttr = "version"
)

// Notifier is told about changed documents. *dynamo.Driver implements it.
type Notifier interface {
	Notify(ref store.DocumentRef)
}

// Handler processes DynamoDB stream events and notifies live queries of
// the documents they touch.
type Handler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(n Notifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		notifier: n,
		logger:   logger,
	}
}

// HandleChanges notifies about every document changed in event.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleChanges(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := ctx.Err(); err != nil {
			return err // Will retry
		}
		h.processRecord(record)
	}
	return nil
}

// processRecord notifies about the document of a single stream record.
// Records that name no valid document are logged and skipped.
func (h *Handler) processRecord(record events.DynamoDBEventRecord) {
	switch record.EventName {
	case EventInsert, EventModify, EventRemove:
	default:
		return
	}

	ref, ok := DocumentOf(record.Change)
	if !ok {
		h.logger.Warn("stream record without document path",
			"eventID", record.EventID,
			"eventName", record.EventName,
		)
		return
	}

	h.logger.Debug("document changed",
		"eventID", record.EventID,
		"eventName", record.EventName,
		"path", ref.Path(),
		"version", getNumberAttr(record.Change.NewImage, versionAttr),
	)
	h.notifier.Notify(ref)
}

// DocumentOf returns the document a stream record is about, taken from the
// record keys or, failing that, from its images.
func DocumentOf(change events.DynamoDBStreamRecord) (store.DocumentRef, bool) {
	for _, image := range []map[string]events.DynamoDBAttributeValue{change.Keys, change.NewImage, change.OldImage} {
		path := getStringAttr(image, pathAttr)
		if path == "" {
			continue
		}
		ref, err := store.ParseDocumentRef(path)
		if err != nil {
			return store.DocumentRef{}, false
		}
		return ref, true
	}
	return store.DocumentRef{}, false
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeNumber {
		n, _ := strconv.ParseInt(v.Number(), 10, 64)
		return n
	}
	return 0
}
