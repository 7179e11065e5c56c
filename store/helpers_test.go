package store_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jacentio/kennel/driver/memstore"
	"github.com/jacentio/kennel/store"
)

// pet is a small entity used to exercise the typed layer.
type pet struct {
	ID   string
	Name string
	Age  int64
}

type petCodec struct{}

func (petCodec) Encode(p pet) store.Fields {
	return store.Fields{"name": p.Name, "age": p.Age}
}

func (petCodec) Decode(doc store.Document) (pet, error) {
	p := pet{ID: doc.Ref.ID()}
	var err error
	if p.Name, err = doc.Fields.String("name"); err != nil {
		return pet{}, err
	}
	if p.Age, err = doc.Fields.Int64("age"); err != nil {
		return pet{}, err
	}
	return p, nil
}

var pets = store.Collection("homes").Doc("h1").Collection("pets")

func newStore(t *testing.T) (*store.Store, *memstore.Driver) {
	t.Helper()
	d := memstore.New(memstore.DefaultConfig(), nil)
	t.Cleanup(d.Close)
	return store.New(d, store.DefaultConfig(), nil), d
}

// countingDriver counts registration removals.
type countingDriver struct {
	store.Driver
	removes atomic.Int32
}

type countingRegistration struct {
	store.Registration
	d *countingDriver
}

func (r countingRegistration) Remove() {
	r.d.removes.Add(1)
	r.Registration.Remove()
}

func (d *countingDriver) Listen(ctx context.Context, q store.Query, fn store.SnapshotFunc) (store.Registration, error) {
	reg, err := d.Driver.Listen(ctx, q, fn)
	if err != nil {
		return nil, err
	}
	return countingRegistration{Registration: reg, d: d}, nil
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for termination")
	}
}
