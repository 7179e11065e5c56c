// Package client exposes scope based operations on dogs, schedules and
// certificates for presentation code.
package client

import (
	"context"
	"log/slog"

	"github.com/jacentio/kennel/model"
	"github.com/jacentio/kennel/scope"
	"github.com/jacentio/kennel/store"
)

// Client bundles the resolver and the typed readers, writers and listeners
// of every entity kind over one store.
type Client struct {
	store    *store.Store
	resolver *scope.Resolver

	dogs         entity[model.Dog]
	schedules    entity[model.Schedule]
	certificates entity[model.Certificate]
}

type entity[T any] struct {
	reader   *store.Reader[T]
	writer   *store.Writer[T]
	listener *store.Listener[T]
}

func newEntity[T any](s *store.Store, codec store.Codec[T]) entity[T] {
	return entity[T]{
		reader:   store.NewReader(s, codec),
		writer:   store.NewWriter(s, codec),
		listener: store.NewListener(s, codec),
	}
}

// New creates a Client over driver.
func New(driver store.Driver, config store.Config, logger *slog.Logger) *Client {
	s := store.New(driver, config, logger)
	return &Client{
		store:        s,
		resolver:     scope.NewResolver(nil),
		dogs:         newEntity(s, model.DogCodec),
		schedules:    newEntity(s, model.ScheduleCodec),
		certificates: newEntity(s, model.CertificateCodec),
	}
}

// Store returns the underlying store.
func (c *Client) Store() *store.Store { return c.store }

// Resolver returns the scope resolver.
func (c *Client) Resolver() *scope.Resolver { return c.resolver }

// --- Dogs ---

// Dogs lists the dogs addressed by an All scope.
func (c *Client) Dogs(ctx context.Context, s scope.Scope) ([]model.Dog, error) {
	return c.dogs.reader.FetchMany(ctx, c.resolver.CollectionTarget(s))
}

// Dog reads the dog addressed by a One scope.
func (c *Client) Dog(ctx context.Context, s scope.Scope) (model.Dog, error) {
	return c.dogs.reader.FetchOne(ctx, c.resolver.DocumentTarget(s))
}

// CreateDog stores a new dog for d.OwnerID and returns its id.
func (c *Client) CreateDog(ctx context.Context, d model.Dog) (string, error) {
	return c.dogs.writer.Create(ctx, d, c.resolver.CreateTarget(scope.DogAll(d.OwnerID)))
}

// SaveDog overwrites the stored dog d.ID.
func (c *Client) SaveDog(ctx context.Context, d model.Dog) error {
	return c.dogs.writer.Overwrite(ctx, d, c.resolver.DocumentTarget(scope.DogOne(d.OwnerID, d.ID)))
}

// DeleteDog removes the dog addressed by a One scope together with its
// schedules and certificates. Children are removed first, so a failure never
// leaves children without their dog.
func (c *Client) DeleteDog(ctx context.Context, s scope.Scope) error {
	ref := c.resolver.DocumentTarget(s)
	if _, err := c.store.DeleteAll(ctx, c.resolver.ChildTargets(s)...); err != nil {
		return err
	}
	return c.dogs.writer.Delete(ctx, ref)
}

// WatchDogs subscribes to the dogs addressed by an All scope.
func (c *Client) WatchDogs(ctx context.Context, s scope.Scope) (*store.Subscription[model.Dog], error) {
	return c.dogs.listener.Subscribe(ctx, c.resolver.CollectionTarget(s))
}

// --- Schedules ---

// Schedules lists the schedules addressed by an All or PerDog scope. With
// incompleteOnly only incomplete schedules are returned, by date; otherwise
// incomplete schedules come first, each group by date.
func (c *Client) Schedules(ctx context.Context, s scope.Scope, incompleteOnly bool) ([]model.Schedule, error) {
	return c.schedules.reader.FetchMany(ctx, c.resolver.CollectionTarget(s, scope.WithIncompleteOnly(incompleteOnly)))
}

// Schedule reads the schedule addressed by a One scope.
func (c *Client) Schedule(ctx context.Context, s scope.Scope) (model.Schedule, error) {
	return c.schedules.reader.FetchOne(ctx, c.resolver.DocumentTarget(s))
}

// CreateSchedule stores a new schedule under sc.DogID and returns its id.
func (c *Client) CreateSchedule(ctx context.Context, sc model.Schedule) (string, error) {
	return c.schedules.writer.Create(ctx, sc, c.resolver.CreateTarget(scope.SchedulePerDog(sc.OwnerID, sc.DogID)))
}

// SaveSchedule overwrites the stored schedule sc.ID.
func (c *Client) SaveSchedule(ctx context.Context, sc model.Schedule) error {
	return c.schedules.writer.Overwrite(ctx, sc, c.resolver.DocumentTarget(scope.ScheduleOne(sc.OwnerID, sc.DogID, sc.ID)))
}

// DeleteSchedule removes the schedule addressed by a One scope.
func (c *Client) DeleteSchedule(ctx context.Context, s scope.Scope) error {
	return c.schedules.writer.Delete(ctx, c.resolver.DocumentTarget(s))
}

// SetSchedulesComplete sets the complete flag of every schedule addressed by
// the One scopes in a single atomic batch.
func (c *Client) SetSchedulesComplete(ctx context.Context, complete bool, scopes ...scope.Scope) error {
	updates := make([]store.Update, 0, len(scopes))
	for _, s := range scopes {
		updates = append(updates, store.Update{
			Ref:    c.resolver.DocumentTarget(s),
			Fields: store.Fields{model.FieldComplete: complete},
		})
	}
	return c.store.BatchUpdate(ctx, updates)
}

// WatchSchedules subscribes to the schedules addressed by an All or PerDog scope.
func (c *Client) WatchSchedules(ctx context.Context, s scope.Scope, incompleteOnly bool) (*store.Subscription[model.Schedule], error) {
	return c.schedules.listener.Subscribe(ctx, c.resolver.CollectionTarget(s, scope.WithIncompleteOnly(incompleteOnly)))
}

// --- Certificates ---

// Certificates lists the certificates addressed by an All or PerDog scope, by date.
func (c *Client) Certificates(ctx context.Context, s scope.Scope) ([]model.Certificate, error) {
	return c.certificates.reader.FetchMany(ctx, c.resolver.CollectionTarget(s))
}

// Certificate reads the certificate addressed by a One scope.
func (c *Client) Certificate(ctx context.Context, s scope.Scope) (model.Certificate, error) {
	return c.certificates.reader.FetchOne(ctx, c.resolver.DocumentTarget(s))
}

// CreateCertificate stores a new certificate under ct.DogID and returns its id.
func (c *Client) CreateCertificate(ctx context.Context, ct model.Certificate) (string, error) {
	return c.certificates.writer.Create(ctx, ct, c.resolver.CreateTarget(scope.CertificatePerDog(ct.OwnerID, ct.DogID)))
}

// SaveCertificate overwrites the stored certificate ct.ID.
func (c *Client) SaveCertificate(ctx context.Context, ct model.Certificate) error {
	return c.certificates.writer.Overwrite(ctx, ct, c.resolver.DocumentTarget(scope.CertificateOne(ct.OwnerID, ct.DogID, ct.ID)))
}

// DeleteCertificate removes the certificate addressed by a One scope.
func (c *Client) DeleteCertificate(ctx context.Context, s scope.Scope) error {
	return c.certificates.writer.Delete(ctx, c.resolver.DocumentTarget(s))
}

// WatchCertificates subscribes to the certificates addressed by an All or PerDog scope.
func (c *Client) WatchCertificates(ctx context.Context, s scope.Scope) (*store.Subscription[model.Certificate], error) {
	return c.certificates.listener.Subscribe(ctx, c.resolver.CollectionTarget(s))
}
