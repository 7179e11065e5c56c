package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a Subscription.
type State int32

const (
	// StateOpen means the registration was requested but nothing was emitted yet.
	StateOpen State = iota
	// StateActive means at least one snapshot was emitted.
	StateActive
	// StateCancelled is terminal: no further snapshots, registration released.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateActive:
		return "active"
	case StateCancelled:
		return "cancelled"
	}
	return "invalid"
}

// Listener opens live subscriptions for one entity type.
type Listener[T any] struct {
	store *Store
	codec Codec[T]
}

// NewListener creates a Listener decoding snapshots with codec.
func NewListener[T any](s *Store, codec Codec[T]) *Listener[T] {
	return &Listener[T]{store: s, codec: codec}
}

// Subscribe registers a live query. The returned subscription emits the full
// decoded result set of q initially and after every change, until it is
// cancelled, ctx is done, or it fails.
func (l *Listener[T]) Subscribe(ctx context.Context, q Query) (*Subscription[T], error) {
	sub := &Subscription[T]{
		out:    make(chan []T, l.store.config.SnapshotBuffer),
		done:   make(chan struct{}),
		query:  q.String(),
		logger: l.store.logger,
	}
	reg, err := l.store.driver.Listen(ctx, q, func(docs []Document, err error) {
		sub.deliver(l.codec, docs, err)
	})
	if err != nil {
		l.store.logger.Error("subscribe failed", "query", sub.query, "error", err)
		return nil, translateError("subscribe", sub.query, err)
	}
	sub.attach(reg, context.AfterFunc(ctx, sub.Cancel))
	l.store.logger.Debug("subscription opened", "query", sub.query)
	return sub, nil
}

// Subscription is a live, cancellable sequence of decoded result sets.
type Subscription[T any] struct {
	out   chan []T
	done  chan struct{}
	state atomic.Int32
	once  sync.Once

	// mu guards reg, stop, released and err.
	mu       sync.Mutex
	reg      Registration
	stop     func() bool
	released bool
	err      error

	// sendMu serializes deliveries with closing out.
	sendMu sync.Mutex
	closed bool

	query  string
	logger *slog.Logger
}

// Snapshots returns the channel of result sets. It is closed once the
// subscription reaches StateCancelled.
func (s *Subscription[T]) Snapshots() <-chan []T { return s.out }

// Done is closed when the subscription terminates.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Err returns the error that terminated the subscription, or nil if it was
// cancelled or is still running.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the current lifecycle state.
func (s *Subscription[T]) State() State { return State(s.state.Load()) }

// Cancel ends the subscription and releases its registration. It may be
// called any number of times from any goroutine; the registration is
// released exactly once.
func (s *Subscription[T]) Cancel() {
	s.finish(nil)
}

func (s *Subscription[T]) attach(reg Registration, stop func() bool) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		stop()
		reg.Remove()
		return
	}
	s.reg = reg
	s.stop = stop
	s.mu.Unlock()
}

func (s *Subscription[T]) deliver(codec Codec[T], docs []Document, err error) {
	select {
	case <-s.done:
		return
	default:
	}
	if err != nil {
		if isCancelled(err) {
			s.finish(nil)
			return
		}
		s.finish(translateError("subscribe", s.query, err))
		return
	}
	vals, err := decodeAll(codec, docs)
	if err != nil {
		s.finish(&OpError{Op: "subscribe", Target: s.query, Err: err})
		return
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return
	}
	s.state.CompareAndSwap(int32(StateOpen), int32(StateActive))
	select {
	case s.out <- vals:
	case <-s.done:
	}
}

func (s *Subscription[T]) finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.released = true
		reg, stop := s.reg, s.stop
		s.mu.Unlock()

		s.state.Store(int32(StateCancelled))
		close(s.done)
		if stop != nil {
			stop()
		}
		if reg != nil {
			reg.Remove()
		}

		s.sendMu.Lock()
		s.closed = true
		for drained := false; !drained; {
			select {
			case <-s.out:
			default:
				drained = true
			}
		}
		close(s.out)
		s.sendMu.Unlock()

		if err != nil {
			s.logger.Error("subscription terminated", "query", s.query, "error", err)
		} else {
			s.logger.Debug("subscription cancelled", "query", s.query)
		}
	})
}
