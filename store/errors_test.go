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

func TestTranslate(t *testing.T) {
	tests := []struct {
		code store.Code
		want error
	}{
		{store.CodeOK, nil},
		{store.CodeCancelled, nil},
		{store.CodeInvalidArgument, store.ErrBadRequest},
		{store.CodeDeadlineExceeded, store.ErrTimeout},
		{store.CodeNotFound, store.ErrNotFound},
		{store.CodeAlreadyExists, store.ErrAlreadyExists},
		{store.CodePermissionDenied, store.ErrNotAuthorized},
		{store.CodeUnauthenticated, store.ErrNotAuthorized},
		{store.CodeUnknown, store.ErrUnknown},
		{store.CodeResourceExhausted, store.ErrUnknown},
		{store.CodeFailedPrecondition, store.ErrUnknown},
		{store.CodeAborted, store.ErrUnknown},
		{store.CodeOutOfRange, store.ErrUnknown},
		{store.CodeUnimplemented, store.ErrUnknown},
		{store.CodeInternal, store.ErrUnknown},
		{store.CodeUnavailable, store.ErrUnknown},
		{store.CodeDataLoss, store.ErrUnknown},
		{store.Code(99), store.ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, store.Translate(tt.code))
		})
	}
}

func TestStatusError(t *testing.T) {
	cause := errors.New("socket closed")
	err := &store.StatusError{Code: store.CodeUnavailable, Message: "backend down", Err: cause}

	assert.Equal(t, "unavailable: backend down", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "not found", store.Statusf(store.CodeNotFound, "").Error())
}

func TestDecodingError_MatchesSentinel(t *testing.T) {
	err := error(&store.DecodingError{Ref: pets.Doc("p1"), Err: errors.New("bad")})

	assert.ErrorIs(t, err, store.ErrDecoding)
	assert.Contains(t, err.Error(), "homes/h1/pets/p1")
}

func TestOperationErrorsAreTranslated(t *testing.T) {
	tests := []struct {
		name string
		code store.Code
		want error
	}{
		{"permission", store.CodePermissionDenied, store.ErrNotAuthorized},
		{"deadline", store.CodeDeadlineExceeded, store.ErrTimeout},
		{"invalid", store.CodeInvalidArgument, store.ErrBadRequest},
		{"other", store.CodeUnavailable, store.ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newStore(t)
			r := store.NewReader[pet](s, petCodec{})

			d.FailNext(memstore.OpQuery, tt.code, "injected")
			_, err := r.FetchMany(context.Background(), pets.Query())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "injected")

			var op *store.OpError
			require.ErrorAs(t, err, &op)
			assert.Equal(t, "fetch", op.Op)
		})
	}
}

func TestCancelledOperationIsGeneric(t *testing.T) {
	s, d := newStore(t)
	r := store.NewReader[pet](s, petCodec{})

	d.FailNext(memstore.OpGet, store.CodeCancelled, "call cancelled")
	_, err := r.FetchOne(context.Background(), pets.Doc("p1"))
	require.Error(t, err)

	var status *store.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, store.CodeCancelled, status.Code)
	for _, sentinel := range []error{store.ErrUnknown, store.ErrNotFound, store.ErrTimeout} {
		assert.NotErrorIs(t, err, sentinel)
	}
}
