package store

import (
	"context"
)

// Reader executes typed reads for one entity type.
type Reader[T any] struct {
	store *Store
	codec Codec[T]
}

// NewReader creates a Reader decoding documents with codec.
func NewReader[T any](s *Store, codec Codec[T]) *Reader[T] {
	return &Reader[T]{store: s, codec: codec}
}

// FetchMany runs q and decodes every returned document. A single malformed
// document fails the whole call with a *DecodingError; partial results are
// never returned.
func (r *Reader[T]) FetchMany(ctx context.Context, q Query) ([]T, error) {
	docs, err := r.store.driver.Query(ctx, q)
	if err != nil {
		r.store.logger.Error("query failed", "query", q.String(), "error", err)
		return nil, translateError("fetch", q.String(), err)
	}
	out, err := decodeAll(r.codec, docs)
	if err != nil {
		r.store.logger.Error("decode failed", "query", q.String(), "error", err)
		return nil, &OpError{Op: "fetch", Target: q.String(), Err: err}
	}
	r.store.logger.Debug("fetched documents", "query", q.String(), "count", len(out))
	return out, nil
}

// FetchOne reads and decodes the document at ref. A missing document is
// ErrNotFound.
//
// A call cancelled by the store fails with an *OpError wrapping the
// *StatusError, which matches no sentinel.
func (r *Reader[T]) FetchOne(ctx context.Context, ref DocumentRef) (T, error) {
	var zero T
	doc, err := r.store.driver.Get(ctx, ref)
	if err != nil {
		r.store.logger.Error("get failed", "ref", ref.Path(), "error", err)
		return zero, translateError("fetch", ref.Path(), err)
	}
	v, err := r.codec.Decode(doc)
	if err != nil {
		derr := &DecodingError{Ref: ref, Err: err}
		r.store.logger.Error("decode failed", "ref", ref.Path(), "error", derr)
		return zero, &OpError{Op: "fetch", Target: ref.Path(), Err: derr}
	}
	r.store.logger.Debug("fetched document", "ref", ref.Path())
	return v, nil
}

func decodeAll[T any](codec Codec[T], docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := codec.Decode(doc)
		if err != nil {
			return nil, &DecodingError{Ref: doc.Ref, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
