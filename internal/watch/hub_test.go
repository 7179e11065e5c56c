package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/kennel/store"
)

var schedules = store.Collection("owners").Doc("u1").Collection("dogs").Doc("d1").Collection("schedules")

// source is a mutable result set for EvalFunc.
type source struct {
	mu    sync.Mutex
	docs  []store.Document
	err   error
	evals atomic.Int32
}

func (s *source) set(docs ...store.Document) {
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
}

func (s *source) eval(context.Context) ([]store.Document, error) {
	s.evals.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs, s.err
}

type result struct {
	docs []store.Document
	err  error
}

func collect() (store.SnapshotFunc, <-chan result) {
	ch := make(chan result, 16)
	return func(docs []store.Document, err error) { ch <- result{docs, err} }, ch
}

func next(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return result{}
}

func TestHub_InitialAndChange(t *testing.T) {
	h := NewHub(0, nil)
	defer h.Close()

	src := &source{}
	fn, ch := collect()
	h.Register(schedules.Query(), src.eval, fn)

	assert.Empty(t, next(t, ch).docs)

	doc := store.Document{Ref: schedules.Doc("s1"), Fields: store.Fields{"complete": false}}
	src.set(doc)
	h.Notify(doc.Ref)

	r := next(t, ch)
	require.NoError(t, r.err)
	assert.Equal(t, []store.Document{doc}, r.docs)
}

func TestHub_SuppressesUnchangedResults(t *testing.T) {
	h := NewHub(0, nil)
	defer h.Close()

	src := &source{}
	src.set(store.Document{Ref: schedules.Doc("s1"), Fields: store.Fields{"n": 1}})
	fn, ch := collect()
	h.Register(schedules.Query(), src.eval, fn)
	next(t, ch)

	h.Notify(schedules.Doc("s1"))
	assert.Eventually(t, func() bool { return src.evals.Load() >= 2 }, time.Second, 5*time.Millisecond)

	select {
	case r := <-ch:
		t.Fatalf("unexpected snapshot %v", r.docs)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_IgnoresUnrelatedChanges(t *testing.T) {
	h := NewHub(0, nil)
	defer h.Close()

	src := &source{}
	fn, ch := collect()
	h.Register(schedules.Query(), src.eval, fn)
	next(t, ch)

	h.Notify(store.Collection("owners").Doc("u1").Collection("dogs").Doc("d1"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), src.evals.Load())
}

func TestHub_EvalErrorEndsWatcher(t *testing.T) {
	h := NewHub(0, nil)
	defer h.Close()

	src := &source{err: errors.New("boom")}
	fn, ch := collect()
	h.Register(schedules.Query(), src.eval, fn)

	r := next(t, ch)
	assert.EqualError(t, r.err, "boom")
	assert.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_Poll(t *testing.T) {
	h := NewHub(10*time.Millisecond, nil)
	defer h.Close()

	src := &source{}
	fn, ch := collect()
	h.Register(store.CollectionGroup("schedules"), src.eval, fn)
	next(t, ch)

	// Changed behind the hub's back; only polling notices.
	src.set(store.Document{Ref: schedules.Doc("s9")})
	r := next(t, ch)
	require.Len(t, r.docs, 1)
}

func TestHub_RemoveAndClose(t *testing.T) {
	h := NewHub(0, nil)

	src := &source{}
	fn, ch := collect()
	reg := h.Register(schedules.Query(), src.eval, fn)
	h.Register(schedules.Query(), src.eval, fn)
	next(t, ch)
	next(t, ch)
	assert.Equal(t, 2, h.Len())

	reg.Remove()
	reg.Remove()
	assert.Equal(t, 1, h.Len())

	h.Close()
	assert.Equal(t, 0, h.Len())
}
