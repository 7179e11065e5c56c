package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/kennel/model"
	"github.com/jacentio/kennel/scope"
	"github.com/jacentio/kennel/store"
)

// violation runs fn and returns the *store.ContractViolation it panics with.
func violation(t *testing.T, fn func()) (v *store.ContractViolation) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		var ok bool
		v, ok = r.(*store.ContractViolation)
		require.True(t, ok, "panic value %T is not a contract violation", r)
	}()
	fn()
	return nil
}

func TestDocumentTarget(t *testing.T) {
	r := scope.NewResolver(nil)

	tests := []struct {
		scope scope.Scope
		want  string
	}{
		{scope.DogOne("u1", "d1"), "owners/u1/dogs/d1"},
		{scope.ScheduleOne("u1", "d1", "s1"), "owners/u1/dogs/d1/schedules/s1"},
		{scope.CertificateOne("u1", "d1", "c1"), "owners/u1/dogs/d1/certificates/c1"},
	}
	for _, tt := range tests {
		t.Run(tt.scope.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, r.DocumentTarget(tt.scope).Path())
		})
	}
}

func TestDocumentTarget_RejectsCollections(t *testing.T) {
	r := scope.NewResolver(nil)

	for _, s := range []scope.Scope{
		scope.DogAll("u1"),
		scope.ScheduleAll("u1"),
		scope.SchedulePerDog("u1", "d1"),
		scope.CertificateAll("u1"),
		scope.CertificatePerDog("u1", "d1"),
	} {
		t.Run(s.String(), func(t *testing.T) {
			v := violation(t, func() { r.DocumentTarget(s) })
			assert.Equal(t, "DocumentTarget", v.Accessor)
			assert.Equal(t, s.String(), v.Scope)
		})
	}
}

func TestCollectionTarget_Dogs(t *testing.T) {
	q := scope.NewResolver(nil).CollectionTarget(scope.DogAll("u1"))

	assert.False(t, q.IsGroup())
	assert.Equal(t, "owners/u1/dogs", q.Collection().Path())
	assert.Empty(t, q.Filters())
	assert.Empty(t, q.Orders())
}

func TestCollectionTarget_Schedules(t *testing.T) {
	r := scope.NewResolver(nil)

	t.Run("all owners dogs", func(t *testing.T) {
		q := r.CollectionTarget(scope.ScheduleAll("u1"))
		assert.True(t, q.IsGroup())
		assert.Equal(t, "schedules", q.CollectionID())
		assert.Equal(t, []store.Filter{
			{Field: model.FieldOwnerID, Value: "u1"},
			{Field: model.FieldComplete, Value: false},
		}, q.Filters())
		assert.Equal(t, []store.Order{{Field: model.FieldDate, Direction: store.Asc}}, q.Orders())
	})

	t.Run("per dog", func(t *testing.T) {
		q := r.CollectionTarget(scope.SchedulePerDog("u1", "d1"))
		assert.False(t, q.IsGroup())
		assert.Equal(t, "owners/u1/dogs/d1/schedules", q.Collection().Path())
		assert.Equal(t, []store.Filter{{Field: model.FieldComplete, Value: false}}, q.Filters())
	})

	t.Run("including complete", func(t *testing.T) {
		q := r.CollectionTarget(scope.SchedulePerDog("u1", "d1"), scope.WithIncompleteOnly(false))
		assert.Empty(t, q.Filters())
		assert.Equal(t, []store.Order{
			{Field: model.FieldComplete, Direction: store.Asc},
			{Field: model.FieldDate, Direction: store.Asc},
		}, q.Orders())
	})
}

func TestCollectionTarget_Certificates(t *testing.T) {
	r := scope.NewResolver(nil)

	q := r.CollectionTarget(scope.CertificateAll("u1"))
	assert.True(t, q.IsGroup())
	assert.Equal(t, "certificates", q.CollectionID())
	assert.Equal(t, []store.Filter{{Field: model.FieldOwnerID, Value: "u1"}}, q.Filters())
	assert.Equal(t, []store.Order{{Field: model.FieldDate, Direction: store.Asc}}, q.Orders())

	// The option only concerns schedules.
	q = r.CollectionTarget(scope.CertificatePerDog("u1", "d1"), scope.WithIncompleteOnly(false))
	assert.Equal(t, "owners/u1/dogs/d1/certificates", q.Collection().Path())
	assert.Empty(t, q.Filters())
	assert.Equal(t, []store.Order{{Field: model.FieldDate, Direction: store.Asc}}, q.Orders())
}

func TestCollectionTarget_RejectsOne(t *testing.T) {
	r := scope.NewResolver(nil)

	for _, s := range []scope.Scope{
		scope.DogOne("u1", "d1"),
		scope.ScheduleOne("u1", "d1", "s1"),
		scope.CertificateOne("u1", "d1", "c1"),
	} {
		t.Run(s.String(), func(t *testing.T) {
			v := violation(t, func() { r.CollectionTarget(s) })
			assert.Equal(t, "CollectionTarget", v.Accessor)
			assert.Contains(t, v.Error(), "DocumentTarget")
		})
	}
}

func TestCreateTarget(t *testing.T) {
	r := scope.NewResolver(nil)

	assert.Equal(t, "owners/u1/dogs", r.CreateTarget(scope.DogAll("u1")).Path())
	assert.Equal(t, "owners/u1/dogs/d1/schedules", r.CreateTarget(scope.SchedulePerDog("u1", "d1")).Path())
	assert.Equal(t, "owners/u1/dogs/d1/certificates", r.CreateTarget(scope.CertificatePerDog("u1", "d1")).Path())

	for _, s := range []scope.Scope{
		scope.DogOne("u1", "d1"),
		scope.ScheduleAll("u1"),
		scope.ScheduleOne("u1", "d1", "s1"),
		scope.CertificateAll("u1"),
	} {
		t.Run(s.String(), func(t *testing.T) {
			v := violation(t, func() { r.CreateTarget(s) })
			assert.Equal(t, "CreateTarget", v.Accessor)
		})
	}
}

func TestChildTargets(t *testing.T) {
	r := scope.NewResolver(nil)

	var paths []string
	for _, c := range r.ChildTargets(scope.DogOne("u1", "d1")) {
		paths = append(paths, c.Path())
	}
	assert.Equal(t, []string{
		"owners/u1/dogs/d1/schedules",
		"owners/u1/dogs/d1/certificates",
	}, paths)

	assert.Empty(t, r.ChildTargets(scope.ScheduleOne("u1", "d1", "s1")))

	v := violation(t, func() { r.ChildTargets(scope.DogAll("u1")) })
	assert.Equal(t, "ChildTargets", v.Accessor)
}

func TestMalformedScopes(t *testing.T) {
	r := scope.NewResolver(nil)

	tests := []struct {
		name   string
		scope  scope.Scope
		reason string
	}{
		{"missing owner", scope.DogAll(""), "owner id"},
		{"missing dog", scope.SchedulePerDog("u1", ""), "dog id"},
		{"missing entity", scope.ScheduleOne("u1", "d1", ""), "entity id"},
		{"dog per dog", scope.Scope{Kind: scope.KindDog, Variant: scope.PerDog, OwnerID: "u1", DogID: "d1"}, "per-dog"},
		{"owner kind", scope.Scope{Kind: scope.KindOwner, Variant: scope.All, OwnerID: "u1"}, "unknown entity kind"},
		{"bad variant", scope.Scope{Kind: scope.KindDog, Variant: scope.Variant(9), OwnerID: "u1"}, "unknown scope variant"},
		{"slash in owner", scope.DogAll("u2/dogs/x/../../u1"), "path separator"},
		{"slash in dog", scope.SchedulePerDog("u1", "d1/schedules"), "path separator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := violation(t, func() { r.CollectionTarget(tt.scope) })
			assert.Contains(t, v.Reason, tt.reason)
		})
	}
}

func TestIDsCannotChangePathShape(t *testing.T) {
	r := scope.NewResolver(nil)

	for _, s := range []scope.Scope{
		scope.DogOne("u1", "d1/schedules/s1"),
		scope.ScheduleOne("u1", "d1", "s1/x"),
		scope.CertificateOne("u1/dogs/d9", "d1", "c1"),
	} {
		t.Run(s.String(), func(t *testing.T) {
			v := violation(t, func() { r.DocumentTarget(s) })
			assert.Equal(t, "DocumentTarget", v.Accessor)
			assert.Contains(t, v.Reason, "path separator")
		})
	}

	v := violation(t, func() { r.ChildTargets(scope.DogOne("u1", "d1/x")) })
	assert.Equal(t, "ChildTargets", v.Accessor)
	v = violation(t, func() { r.CreateTarget(scope.CertificatePerDog("u1", "d1/certificates")) })
	assert.Equal(t, "CreateTarget", v.Accessor)
}

func TestCustomRegistry(t *testing.T) {
	reg := scope.DefaultRegistry()
	reg.Register(scope.Relationship{
		ParentKind:     scope.KindDog,
		ChildKind:      scope.KindCertificate,
		Collection:     "documents",
		ParentKeyField: model.FieldDogID,
	})
	r := scope.NewResolver(reg)

	assert.Equal(t, "owners/u1/dogs/d1/documents/c1", r.DocumentTarget(scope.CertificateOne("u1", "d1", "c1")).Path())
	assert.Equal(t, "documents", r.CollectionTarget(scope.CertificateAll("u1")).CollectionID())

	v := violation(t, func() { scope.NewResolver(scope.NewRegistry()).DocumentTarget(scope.DogOne("u1", "d1")) })
	assert.Contains(t, v.Reason, "not registered")
}
