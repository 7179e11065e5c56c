package store

import "context"

// Driver is the connection to a concrete document store. Implementations
// report store failures as *StatusError so they can be translated.
type Driver interface {
	// Get reads one document. A missing document is a StatusError with CodeNotFound.
	Get(ctx context.Context, ref DocumentRef) (Document, error)

	// Query returns the documents matching q in q's order.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Create writes a new document, failing with CodeAlreadyExists if ref is taken.
	Create(ctx context.Context, ref DocumentRef, fields Fields) error

	// Set replaces all fields of the document at ref, creating it if needed.
	Set(ctx context.Context, ref DocumentRef, fields Fields) error

	// Delete removes the document at ref. Deleting a missing document succeeds.
	Delete(ctx context.Context, ref DocumentRef) error

	// Commit applies all updates atomically: either every update becomes
	// visible or none does. Updating a missing document fails the batch.
	Commit(ctx context.Context, updates []Update) error

	// Listen registers fn for q. fn is called with the full result set once
	// initially and again whenever it changes, or once with a non-nil error
	// after which no more calls happen. Calls for one registration are
	// sequential. The context only bounds the registration request.
	Listen(ctx context.Context, q Query, fn SnapshotFunc) (Registration, error)
}

// SnapshotFunc receives listener results.
type SnapshotFunc func(docs []Document, err error)

// Registration is a live listener registration.
type Registration interface {
	// Remove stops delivery. It is safe to call from inside the SnapshotFunc
	// and never waits for an in-flight delivery to finish.
	Remove()
}
