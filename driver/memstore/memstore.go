// Package memstore provides an in-process store.Driver.
//
// It keeps documents in memory, evaluates live queries natively and can be
// told to fail upcoming calls, which makes it the driver of choice for
// tests and local runs.
package memstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jacentio/kennel/internal/watch"
	"github.com/jacentio/kennel/store"
)

// Op names a driver operation for fault injection.
type Op string

// Driver operations.
const (
	OpGet    Op = "get"
	OpQuery  Op = "query"
	OpCreate Op = "create"
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpCommit Op = "commit"
	OpListen Op = "listen"
)

// Config holds configuration for the Driver.
type Config struct {
	// MaxBatchSize is the largest number of updates one Commit accepts.
	// Default: 500
	MaxBatchSize int
}

// DefaultConfig returns the limits of a typical hosted document store.
func DefaultConfig() Config {
	return Config{MaxBatchSize: 500}
}

func (c *Config) validate() {
	if c.MaxBatchSize < 1 {
		c.MaxBatchSize = 500
	}
}

// Driver is an in-memory store.Driver. It is safe for concurrent use.
type Driver struct {
	mu     sync.RWMutex
	docs   map[string]store.Fields
	config Config
	hub    *watch.Hub
	logger *slog.Logger

	// faultsMu protects faults and commitFault
	faultsMu    sync.Mutex
	faults      map[Op]*store.StatusError
	commitFault *commitFault
}

type commitFault struct {
	after int
	err   *store.StatusError
}

var _ store.Driver = (*Driver)(nil)

// New creates an empty Driver.
func New(config Config, logger *slog.Logger) *Driver {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		docs:   make(map[string]store.Fields),
		config: config,
		hub:    watch.NewHub(0, logger),
		logger: logger,
		faults: make(map[Op]*store.StatusError),
	}
}

// FailNext makes the next call of op fail with code.
func (d *Driver) FailNext(op Op, code store.Code, message string) {
	d.faultsMu.Lock()
	defer d.faultsMu.Unlock()
	d.faults[op] = store.Statusf(code, "%s", message)
}

// FailNextCommit makes the next Commit fail with code after staging its
// first after updates, as if the connection dropped mid-transmission. An
// after beyond the batch fails at its last update; after < 1 fails before
// the first one.
func (d *Driver) FailNextCommit(after int, code store.Code) {
	d.faultsMu.Lock()
	defer d.faultsMu.Unlock()
	d.commitFault = &commitFault{
		after: after,
		err:   store.Statusf(code, "commit interrupted after %d updates", after),
	}
}

// Len returns the number of stored documents.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Listeners returns the number of live registrations.
func (d *Driver) Listeners() int {
	return d.hub.Len()
}

// Close stops every live registration.
func (d *Driver) Close() {
	d.hub.Close()
}

// Get implements store.Driver.
func (d *Driver) Get(ctx context.Context, ref store.DocumentRef) (store.Document, error) {
	if err := d.check(ctx, OpGet); err != nil {
		return store.Document{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	fields, ok := d.docs[ref.Path()]
	if !ok {
		return store.Document{}, store.Statusf(store.CodeNotFound, "no document at %s", ref.Path())
	}
	return store.Document{Ref: ref, Fields: fields.Clone()}, nil
}

// Query implements store.Driver.
func (d *Driver) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	if err := d.check(ctx, OpQuery); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []store.Document{}
	for path, fields := range d.docs {
		ref, err := store.ParseDocumentRef(path)
		if err != nil {
			continue
		}
		doc := store.Document{Ref: ref, Fields: fields}
		if q.Matches(doc) {
			out = append(out, store.Document{Ref: ref, Fields: fields.Clone()})
		}
	}
	q.Sort(out)
	return out, nil
}

// Create implements store.Driver.
func (d *Driver) Create(ctx context.Context, ref store.DocumentRef, fields store.Fields) error {
	if err := d.check(ctx, OpCreate); err != nil {
		return err
	}
	d.mu.Lock()
	if _, exists := d.docs[ref.Path()]; exists {
		d.mu.Unlock()
		return store.Statusf(store.CodeAlreadyExists, "document %s already exists", ref.Path())
	}
	d.docs[ref.Path()] = fields.Clone()
	d.mu.Unlock()

	d.hub.Notify(ref)
	return nil
}

// Set implements store.Driver.
func (d *Driver) Set(ctx context.Context, ref store.DocumentRef, fields store.Fields) error {
	if err := d.check(ctx, OpSet); err != nil {
		return err
	}
	d.mu.Lock()
	d.docs[ref.Path()] = fields.Clone()
	d.mu.Unlock()

	d.hub.Notify(ref)
	return nil
}

// Delete implements store.Driver.
func (d *Driver) Delete(ctx context.Context, ref store.DocumentRef) error {
	if err := d.check(ctx, OpDelete); err != nil {
		return err
	}
	d.mu.Lock()
	_, existed := d.docs[ref.Path()]
	delete(d.docs, ref.Path())
	d.mu.Unlock()

	if existed {
		d.hub.Notify(ref)
	}
	return nil
}

// Commit implements store.Driver. Updates are merged into a staging copy
// and only published once all of them applied.
func (d *Driver) Commit(ctx context.Context, updates []store.Update) error {
	if err := d.check(ctx, OpCommit); err != nil {
		return err
	}
	if len(updates) > d.config.MaxBatchSize {
		return store.Statusf(store.CodeInvalidArgument,
			"batch of %d updates exceeds limit of %d", len(updates), d.config.MaxBatchSize)
	}

	d.faultsMu.Lock()
	fault := d.commitFault
	d.commitFault = nil
	d.faultsMu.Unlock()

	if fault != nil && (fault.after < 1 || len(updates) == 0) {
		d.logger.Warn("injected commit failure", "staged", 0, "updates", len(updates))
		return fault.err
	}

	d.mu.Lock()
	staged := make(map[string]store.Fields, len(updates))
	for i, u := range updates {
		cur, ok := staged[u.Ref.Path()]
		if !ok {
			cur, ok = d.docs[u.Ref.Path()]
		}
		if !ok {
			d.mu.Unlock()
			return store.Statusf(store.CodeNotFound, "no document to update at %s", u.Ref.Path())
		}
		merged := cur.Clone()
		for k, v := range u.Fields {
			merged[k] = v
		}
		staged[u.Ref.Path()] = merged

		if fault != nil && (i+1 == fault.after || i+1 == len(updates)) {
			d.mu.Unlock()
			d.logger.Warn("injected commit failure", "staged", i+1, "updates", len(updates))
			return fault.err
		}
	}
	for path, fields := range staged {
		d.docs[path] = fields
	}
	d.mu.Unlock()

	for _, u := range updates {
		d.hub.Notify(u.Ref)
	}
	return nil
}

// Listen implements store.Driver.
func (d *Driver) Listen(ctx context.Context, q store.Query, fn store.SnapshotFunc) (store.Registration, error) {
	if err := d.check(ctx, OpListen); err != nil {
		return nil, err
	}
	return d.hub.Register(q, func(ctx context.Context) ([]store.Document, error) {
		return d.Query(ctx, q)
	}, fn), nil
}

// check reports context cancellation and injected faults for op.
func (d *Driver) check(ctx context.Context, op Op) error {
	if err := ctx.Err(); err != nil {
		return contextStatus(err)
	}
	d.faultsMu.Lock()
	defer d.faultsMu.Unlock()
	if err, ok := d.faults[op]; ok {
		delete(d.faults, op)
		return err
	}
	return nil
}

func contextStatus(err error) *store.StatusError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &store.StatusError{Code: store.CodeDeadlineExceeded, Message: err.Error(), Err: err}
	}
	return &store.StatusError{Code: store.CodeCancelled, Message: err.Error(), Err: err}
}
