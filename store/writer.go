package store

import (
	"context"

	"github.com/google/uuid"
)

// Writer executes typed writes for one entity type.
//
// Failures are translated like reads: a call cancelled by the store returns
// an *OpError wrapping the *StatusError rather than a sentinel.
type Writer[T any] struct {
	store *Store
	codec Codec[T]
	newID func() string
}

// NewWriter creates a Writer encoding entities with codec.
func NewWriter[T any](s *Store, codec Codec[T]) *Writer[T] {
	return &Writer[T]{store: s, codec: codec, newID: uuid.NewString}
}

// Create stores v as a new document in parent and returns its id. Every
// call creates a distinct document.
func (w *Writer[T]) Create(ctx context.Context, v T, parent CollectionRef) (string, error) {
	ref := parent.Doc(w.newID())
	if err := w.store.driver.Create(ctx, ref, w.codec.Encode(v)); err != nil {
		w.store.logger.Error("create failed", "collection", parent.Path(), "error", err)
		return "", translateError("create", parent.Path(), err)
	}
	w.store.logger.Info("created document", "ref", ref.Path())
	return ref.ID(), nil
}

// Overwrite replaces every field of the document at ref with v.
func (w *Writer[T]) Overwrite(ctx context.Context, v T, ref DocumentRef) error {
	if err := w.store.driver.Set(ctx, ref, w.codec.Encode(v)); err != nil {
		w.store.logger.Error("overwrite failed", "ref", ref.Path(), "error", err)
		return translateError("overwrite", ref.Path(), err)
	}
	w.store.logger.Info("overwrote document", "ref", ref.Path())
	return nil
}

// Delete removes the document at ref.
func (w *Writer[T]) Delete(ctx context.Context, ref DocumentRef) error {
	if err := w.store.driver.Delete(ctx, ref); err != nil {
		w.store.logger.Error("delete failed", "ref", ref.Path(), "error", err)
		return translateError("delete", ref.Path(), err)
	}
	w.store.logger.Info("deleted document", "ref", ref.Path())
	return nil
}
