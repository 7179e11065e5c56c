// Package store provides typed access to a hierarchical document store.
//
// Documents live in collections addressed by slash separated paths
// ("owners/u1/dogs/d1"). A [Driver] connects the package to a concrete
// store; reads, writes and live queries go through typed wrappers that
// encode and decode entities with an explicit [Codec].
//
// # Components
//
//   - [Reader] runs single-document and multi-document reads
//   - [Writer] creates, overwrites and deletes documents
//   - [Store.BatchUpdate] applies partial updates atomically
//   - [Listener] opens live [Subscription]s over a [Query]
//
// # Decoding
//
// Decoding is all-or-nothing: one malformed document fails the whole fetch
// or terminates the subscription with a [DecodingError].
//
// # Errors
//
// Drivers report failures as [StatusError]. [Translate] maps their codes to
// the domain errors:
//
//   - [ErrBadRequest] - invalid argument, including oversized batches
//   - [ErrTimeout] - deadline exceeded
//   - [ErrNotFound] - document doesn't exist
//   - [ErrAlreadyExists] - document id already taken
//   - [ErrNotAuthorized] - permission denied or unauthenticated
//   - [ErrUnknown] - any other store code
//
// A cancelled code is not a failure and ends subscriptions silently. A
// one-shot read or write that is cancelled returns an [OpError] wrapping the
// [StatusError] instead; it matches none of the sentinels above.
// Resolving an address through the wrong accessor panics with a
// [ContractViolation].
package store
