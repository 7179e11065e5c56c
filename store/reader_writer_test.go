package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/kennel/driver/memstore"
	"github.com/jacentio/kennel/store"
)

func TestWriter_CreateAssignsDistinctIDs(t *testing.T) {
	s, d := newStore(t)
	w := store.NewWriter(s, petCodec{})
	ctx := context.Background()

	id1, err := w.Create(ctx, pet{Name: "Rex", Age: 3}, pets)
	require.NoError(t, err)
	id2, err := w.Create(ctx, pet{Name: "Rex", Age: 3}, pets)
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, d.Len())
}

func TestWriter_OverwriteThenFetch(t *testing.T) {
	s, _ := newStore(t)
	w := store.NewWriter(s, petCodec{})
	r := store.NewReader(s, petCodec{})
	ctx := context.Background()

	id, err := w.Create(ctx, pet{Name: "Rex", Age: 3}, pets)
	require.NoError(t, err)

	require.NoError(t, w.Overwrite(ctx, pet{Name: "Rex", Age: 4}, pets.Doc(id)))

	got, err := r.FetchOne(ctx, pets.Doc(id))
	require.NoError(t, err)
	assert.Equal(t, pet{ID: id, Name: "Rex", Age: 4}, got)
}

func TestReader_FetchOneMissing(t *testing.T) {
	s, _ := newStore(t)
	r := store.NewReader(s, petCodec{})

	_, err := r.FetchOne(context.Background(), pets.Doc("nope"))
	require.ErrorIs(t, err, store.ErrNotFound)

	var op *store.OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, pets.Doc("nope").Path(), op.Target)
}

func TestReader_FetchManyOrdered(t *testing.T) {
	s, d := newStore(t)
	r := store.NewReader(s, petCodec{})
	ctx := context.Background()

	for id, age := range map[string]int64{"a": 5, "b": 1, "c": 3} {
		require.NoError(t, d.Set(ctx, pets.Doc(id), store.Fields{"name": id, "age": age}))
	}

	got, err := r.FetchMany(ctx, pets.Query().OrderBy("age", store.Asc))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "a", got[2].ID)

	empty, err := r.FetchMany(ctx, store.Collection("homes").Doc("h2").Collection("pets").Query())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestReader_DecodingFailureFailsWholeFetch(t *testing.T) {
	s, d := newStore(t)
	r := store.NewReader(s, petCodec{})
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, pets.Doc("good"), store.Fields{"name": "Rex", "age": 3}))
	require.NoError(t, d.Set(ctx, pets.Doc("bad"), store.Fields{"name": "Fido"}))

	got, err := r.FetchMany(ctx, pets.Query())
	assert.Nil(t, got)
	require.ErrorIs(t, err, store.ErrDecoding)

	var derr *store.DecodingError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, pets.Doc("bad"), derr.Ref)

	var ferr *store.FieldError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "age", ferr.Field)

	_, err = r.FetchOne(ctx, pets.Doc("bad"))
	assert.ErrorIs(t, err, store.ErrDecoding)
}

func TestWriter_Delete(t *testing.T) {
	s, d := newStore(t)
	w := store.NewWriter(s, petCodec{})
	ctx := context.Background()

	id, err := w.Create(ctx, pet{Name: "Rex"}, pets)
	require.NoError(t, err)
	require.NoError(t, w.Delete(ctx, pets.Doc(id)))
	assert.Equal(t, 0, d.Len())

	// Deleting a missing document is not an error.
	assert.NoError(t, w.Delete(ctx, pets.Doc(id)))
}

func TestWriter_CreateFailure(t *testing.T) {
	s, d := newStore(t)
	w := store.NewWriter(s, petCodec{})

	d.FailNext(memstore.OpCreate, store.CodeAlreadyExists, "taken")
	id, err := w.Create(context.Background(), pet{Name: "Rex"}, pets)
	assert.Empty(t, id)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.Equal(t, 0, d.Len())
}

func TestStore_DeleteAll(t *testing.T) {
	s, d := newStore(t)
	ctx := context.Background()
	toys := store.Collection("homes").Doc("h1").Collection("toys")

	require.NoError(t, d.Set(ctx, pets.Doc("p1"), store.Fields{"name": "a"}))
	require.NoError(t, d.Set(ctx, pets.Doc("p2"), store.Fields{"name": "b"}))
	require.NoError(t, d.Set(ctx, toys.Doc("t1"), store.Fields{"name": "ball"}))
	require.NoError(t, d.Set(ctx, store.Collection("homes").Doc("h1"), store.Fields{}))

	n, err := s.DeleteAll(ctx, pets, toys)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, d.Len())
}

func TestStore_DeleteAllFailure(t *testing.T) {
	s, d := newStore(t)
	ctx := context.Background()
	require.NoError(t, d.Set(ctx, pets.Doc("p1"), store.Fields{"name": "a"}))

	d.FailNext(memstore.OpDelete, store.CodePermissionDenied, "denied")
	n, err := s.DeleteAll(ctx, pets)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, store.ErrNotAuthorized)
	assert.Equal(t, 1, d.Len())
}

func TestBatchUpdate_Empty(t *testing.T) {
	s, d := newStore(t)
	d.FailNext(memstore.OpCommit, store.CodeInternal, "must not be called")

	require.NoError(t, s.BatchUpdate(context.Background(), nil))
	require.NoError(t, s.BatchUpdate(context.Background(), []store.Update{}))
}

func TestBatchUpdate_MergesFields(t *testing.T) {
	s, d := newStore(t)
	r := store.NewReader(s, petCodec{})
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, pets.Doc("a"), store.Fields{"name": "Rex", "age": 3}))
	require.NoError(t, d.Set(ctx, pets.Doc("b"), store.Fields{"name": "Fido", "age": 7}))

	err := s.BatchUpdate(ctx, []store.Update{
		{Ref: pets.Doc("a"), Fields: store.Fields{"age": 4}},
		store.UpdateOf[pet](petCodec{}, pet{Name: "Bella", Age: 8}, pets.Doc("b")),
	})
	require.NoError(t, err)

	got, err := r.FetchMany(ctx, pets.Query())
	require.NoError(t, err)
	assert.Equal(t, []pet{
		{ID: "a", Name: "Rex", Age: 4},
		{ID: "b", Name: "Bella", Age: 8},
	}, got)
}

func TestBatchUpdate_AllOrNothing(t *testing.T) {
	s, d := newStore(t)
	r := store.NewReader(s, petCodec{})
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, pets.Doc("a"), store.Fields{"name": "Rex", "age": 3}))
	require.NoError(t, d.Set(ctx, pets.Doc("b"), store.Fields{"name": "Fido", "age": 7}))

	updates := []store.Update{
		{Ref: pets.Doc("a"), Fields: store.Fields{"age": 10}},
		{Ref: pets.Doc("b"), Fields: store.Fields{"age": 11}},
	}

	t.Run("interrupted", func(t *testing.T) {
		d.FailNextCommit(1, store.CodeUnavailable)
		err := s.BatchUpdate(ctx, updates)
		require.ErrorIs(t, err, store.ErrUnknown)

		got, err := r.FetchOne(ctx, pets.Doc("a"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Age)
	})

	t.Run("missing document", func(t *testing.T) {
		err := s.BatchUpdate(ctx, append(updates, store.Update{Ref: pets.Doc("zz"), Fields: store.Fields{"age": 1}}))
		require.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), pets.Doc("zz").Path())

		got, err := r.FetchMany(ctx, pets.Query().OrderBy("age", store.Asc))
		require.NoError(t, err)
		assert.Equal(t, int64(3), got[0].Age)
		assert.Equal(t, int64(7), got[1].Age)
	})
}

func TestBatchUpdate_InterruptionBeyondBatchStillFails(t *testing.T) {
	s, d := newStore(t)
	r := store.NewReader(s, petCodec{})
	ctx := context.Background()
	require.NoError(t, d.Set(ctx, pets.Doc("a"), store.Fields{"name": "Rex", "age": 3}))

	d.FailNextCommit(5, store.CodeUnavailable)
	err := s.BatchUpdate(ctx, []store.Update{{Ref: pets.Doc("a"), Fields: store.Fields{"age": 4}}})
	require.ErrorIs(t, err, store.ErrUnknown)

	got, err := r.FetchOne(ctx, pets.Doc("a"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Age)
}

func TestBatchUpdate_TooLarge(t *testing.T) {
	d := memstore.New(memstore.Config{MaxBatchSize: 2}, nil)
	t.Cleanup(d.Close)
	s := store.New(d, store.DefaultConfig(), nil)
	ctx := context.Background()

	updates := make([]store.Update, 3)
	for i := range updates {
		ref := pets.Doc(string(rune('a' + i)))
		require.NoError(t, d.Set(ctx, ref, store.Fields{"name": "x", "age": 1}))
		updates[i] = store.Update{Ref: ref, Fields: store.Fields{"age": 2}}
	}

	err := s.BatchUpdate(ctx, updates)
	require.ErrorIs(t, err, store.ErrBadRequest)

	var op *store.OpError
	require.True(t, errors.As(err, &op))
	assert.Equal(t, "batch update", op.Op)
}
