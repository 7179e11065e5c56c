package store

import (
	"context"
	"log/slog"
)

// Store provides typed access to a document store through a Driver.
type Store struct {
	driver Driver
	config Config
	logger *slog.Logger
}

// New creates a new Store instance. A nil logger uses slog.Default().
func New(driver Driver, config Config, logger *slog.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		driver: driver,
		config: config,
		logger: logger,
	}
}

// Driver returns the underlying driver.
func (s *Store) Driver() Driver {
	return s.driver
}

// BatchUpdate applies partial-field updates to several documents as one
// atomic unit. Either all updates become visible or none does. An empty
// batch is a no-op.
//
// The batch must fit the store's size limit; an oversized batch fails with
// ErrBadRequest and nothing is written.
func (s *Store) BatchUpdate(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.driver.Commit(ctx, updates); err != nil {
		s.logger.Error("batch update failed",
			"updates", len(updates),
			"error", err,
		)
		return translateError("batch update", "", err)
	}
	s.logger.Debug("batch update committed", "updates", len(updates))
	return nil
}

// DeleteAll removes every document of the given collections and returns how
// many were deleted. It is not atomic: a failure leaves the documents
// deleted so far removed.
func (s *Store) DeleteAll(ctx context.Context, colls ...CollectionRef) (int, error) {
	deleted := 0
	for _, coll := range colls {
		docs, err := s.driver.Query(ctx, coll.Query())
		if err != nil {
			s.logger.Error("delete all failed", "collection", coll.Path(), "error", err)
			return deleted, translateError("delete all", coll.Path(), err)
		}
		for _, doc := range docs {
			if err := s.driver.Delete(ctx, doc.Ref); err != nil {
				s.logger.Error("delete all failed", "ref", doc.Ref.Path(), "error", err)
				return deleted, translateError("delete all", doc.Ref.Path(), err)
			}
			deleted++
		}
	}
	if deleted > 0 {
		s.logger.Info("deleted documents", "count", deleted)
	}
	return deleted, nil
}
