// Package watch re-evaluates live queries when the documents they read change.
package watch

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/kennel/store"
)

// EvalFunc computes the current result set of a watched query.
type EvalFunc func(ctx context.Context) ([]store.Document, error)

// Hub tracks live queries and re-runs them when notified of a change to a
// document they might contain.
//
// Each watcher is serviced by its own goroutine, so snapshots of one
// watcher are delivered sequentially.
type Hub struct {
	// watchersMu protects access to watchers
	watchersMu sync.RWMutex
	watchers   map[string]*watcher

	poll   time.Duration
	logger *slog.Logger
}

type watcher struct {
	id    string
	query store.Query
	eval  EvalFunc
	fn    store.SnapshotFunc

	kick   chan struct{}
	stopCh chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	hub    *Hub
}

// NewHub creates a Hub. A positive poll interval also re-evaluates every
// watcher periodically, for changes made outside this process that are not
// reported through Notify.
func NewHub(poll time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		watchers: make(map[string]*watcher),
		poll:     poll,
		logger:   logger,
	}
}

// Register starts watching q. eval runs once immediately and again after
// each relevant change; fn receives the result whenever it differs from the
// previous one. An eval error is passed to fn and ends the watcher.
func (h *Hub) Register(q store.Query, eval EvalFunc, fn store.SnapshotFunc) store.Registration {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		id:     uuid.NewString(),
		query:  q,
		eval:   eval,
		fn:     fn,
		kick:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		cancel: cancel,
		hub:    h,
	}

	h.watchersMu.Lock()
	h.watchers[w.id] = w
	h.watchersMu.Unlock()

	h.logger.Debug("watcher registered", "watcher_id", w.id, "query", q.String())
	go w.run(ctx)
	return w
}

// Notify wakes every watcher whose query reads the collection containing ref.
func (h *Hub) Notify(ref store.DocumentRef) {
	h.watchersMu.RLock()
	defer h.watchersMu.RUnlock()

	for _, w := range h.watchers {
		if !w.query.Contains(ref) {
			continue
		}
		select {
		case w.kick <- struct{}{}:
		default:
			// already pending
		}
	}
}

// Len returns the number of active watchers.
func (h *Hub) Len() int {
	h.watchersMu.RLock()
	defer h.watchersMu.RUnlock()
	return len(h.watchers)
}

// Close stops every watcher.
func (h *Hub) Close() {
	h.watchersMu.RLock()
	ws := make([]*watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		ws = append(ws, w)
	}
	h.watchersMu.RUnlock()

	for _, w := range ws {
		w.Remove()
	}
}

// Remove stops the watcher. It does not wait for the watcher goroutine.
func (w *watcher) Remove() {
	w.once.Do(func() {
		close(w.stopCh)
		w.cancel()

		w.hub.watchersMu.Lock()
		delete(w.hub.watchers, w.id)
		w.hub.watchersMu.Unlock()

		w.hub.logger.Debug("watcher removed", "watcher_id", w.id)
	})
}

func (w *watcher) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *watcher) run(ctx context.Context) {
	var tick <-chan time.Time
	if w.hub.poll > 0 {
		ticker := time.NewTicker(w.hub.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	var last []store.Document
	first := true
	for {
		docs, err := w.eval(ctx)
		if w.stopped() {
			return
		}
		if err != nil {
			w.hub.logger.Warn("watcher evaluation failed",
				"watcher_id", w.id,
				"query", w.query.String(),
				"error", err,
			)
			w.fn(nil, err)
			w.Remove()
			return
		}
		if first || !reflect.DeepEqual(last, docs) {
			first = false
			last = docs
			w.fn(docs, nil)
		}

		select {
		case <-w.stopCh:
			return
		case <-w.kick:
		case <-tick:
		}
	}
}
