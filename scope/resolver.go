package scope

import (
	"strconv"
	"strings"

	"github.com/jacentio/kennel/model"
	"github.com/jacentio/kennel/store"
)

// QueryOption adjusts a collection target.
type QueryOption func(*queryOptions)

type queryOptions struct {
	incompleteOnly bool
}

// WithIncompleteOnly selects whether schedule queries return only
// incomplete schedules (the default) or every schedule, incomplete first.
// Other kinds ignore it.
func WithIncompleteOnly(incompleteOnly bool) QueryOption {
	return func(o *queryOptions) { o.incompleteOnly = incompleteOnly }
}

// Resolver maps scopes to store addresses. It performs no I/O.
//
// Each accessor accepts only the scope shapes it can serve; anything else
// is a caller bug and panics with a *store.ContractViolation.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a Resolver over registry. A nil registry uses
// DefaultRegistry.
func NewResolver(registry *Registry) *Resolver {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Resolver{registry: registry}
}

// DocumentTarget returns the document addressed by a One scope.
func (r *Resolver) DocumentTarget(s Scope) store.DocumentRef {
	const accessor = "DocumentTarget"
	r.validate(accessor, s)
	if s.Variant != One {
		violate(accessor, s, "scope addresses a collection; use CollectionTarget")
	}
	return r.collection(accessor, s.Kind, s).Doc(s.EntityID)
}

// CollectionTarget returns the query for an All or PerDog scope, with the
// filters and ordering of the scope's kind applied.
func (r *Resolver) CollectionTarget(s Scope, opts ...QueryOption) store.Query {
	const accessor = "CollectionTarget"
	r.validate(accessor, s)
	if s.Variant == One {
		violate(accessor, s, "scope addresses a single document; use DocumentTarget")
	}
	o := queryOptions{incompleteOnly: true}
	for _, opt := range opts {
		opt(&o)
	}

	var q store.Query
	if s.Variant == All && s.Kind != KindDog {
		// Spans every dog of the owner, so the owner filter replaces the path scoping.
		rel, _ := r.registry.ParentOf(s.Kind)
		q = store.CollectionGroup(rel.Collection).WhereEqual(r.ownerKeyField(accessor, s), s.OwnerID)
	} else {
		q = r.collection(accessor, s.Kind, s).Query()
	}

	switch s.Kind {
	case KindSchedule:
		if o.incompleteOnly {
			q = q.WhereEqual(model.FieldComplete, false).OrderBy(model.FieldDate, store.Asc)
		} else {
			q = q.OrderBy(model.FieldComplete, store.Asc).OrderBy(model.FieldDate, store.Asc)
		}
	case KindCertificate:
		q = q.OrderBy(model.FieldDate, store.Asc)
	}
	return q
}

// CreateTarget returns the collection new documents of the scope's kind are
// created in: the owner's dogs for DogAll, or one dog's schedules or
// certificates for a PerDog scope.
func (r *Resolver) CreateTarget(s Scope) store.CollectionRef {
	const accessor = "CreateTarget"
	r.validate(accessor, s)
	switch {
	case s.Kind == KindDog && s.Variant == All:
	case s.Kind != KindDog && s.Variant == PerDog:
	default:
		violate(accessor, s, "scope does not name a single parent collection")
	}
	return r.collection(accessor, s.Kind, s)
}

// ChildTargets returns the collections nested under the document addressed
// by a One scope, one per registered child kind.
func (r *Resolver) ChildTargets(s Scope) []store.CollectionRef {
	const accessor = "ChildTargets"
	r.validate(accessor, s)
	if s.Variant != One {
		violate(accessor, s, "scope addresses a collection; children belong to one document")
	}
	if !r.registry.HasChildren(s.Kind) {
		return nil
	}
	doc := r.collection(accessor, s.Kind, s).Doc(s.EntityID)
	rels := r.registry.ChildrenOf(s.Kind)
	out := make([]store.CollectionRef, 0, len(rels))
	for _, rel := range rels {
		out = append(out, doc.Collection(rel.Collection))
	}
	return out
}

// ownerKeyField returns the field naming the owner in documents of the
// scope's kind: the key field of the ancestor relationship below the owner.
func (r *Resolver) ownerKeyField(accessor string, s Scope) string {
	kind := s.Kind
	for {
		rel, ok := r.registry.ParentOf(kind)
		if !ok {
			violate(accessor, s, "kind "+kind.String()+" is not registered")
		}
		if rel.ParentKind == KindOwner {
			return rel.ParentKeyField
		}
		kind = rel.ParentKind
	}
}

// collection builds the collection holding documents of kind, walking the
// registry up to the owner document.
func (r *Resolver) collection(accessor string, kind Kind, s Scope) store.CollectionRef {
	rel, ok := r.registry.ParentOf(kind)
	if !ok {
		violate(accessor, s, "kind "+kind.String()+" is not registered")
	}
	if rel.ParentKind == KindOwner {
		return store.Collection(RootCollection).Doc(s.OwnerID).Collection(rel.Collection)
	}
	return r.collection(accessor, rel.ParentKind, s).Doc(idOf(rel.ParentKind, s)).Collection(rel.Collection)
}

func idOf(kind Kind, s Scope) string {
	switch {
	case kind == s.Kind:
		return s.EntityID
	case kind == KindDog:
		return s.DogID
	case kind == KindOwner:
		return s.OwnerID
	}
	return ""
}

func (r *Resolver) validate(accessor string, s Scope) {
	switch s.Kind {
	case KindDog, KindSchedule, KindCertificate:
	default:
		violate(accessor, s, "unknown entity kind")
	}
	if s.OwnerID == "" {
		violate(accessor, s, "owner id is required")
	}
	switch s.Variant {
	case All:
	case PerDog:
		if s.Kind == KindDog {
			violate(accessor, s, "dogs have no per-dog scope")
		}
		if s.DogID == "" {
			violate(accessor, s, "dog id is required")
		}
	case One:
		if s.Kind != KindDog && s.DogID == "" {
			violate(accessor, s, "dog id is required")
		}
		if s.EntityID == "" {
			violate(accessor, s, "entity id is required")
		}
	default:
		violate(accessor, s, "unknown scope variant")
	}
	for _, id := range []string{s.OwnerID, s.DogID, s.EntityID} {
		if strings.Contains(id, "/") {
			violate(accessor, s, "id "+strconv.Quote(id)+" contains a path separator")
		}
	}
}

func violate(accessor string, s Scope, reason string) {
	panic(&store.ContractViolation{Accessor: accessor, Scope: s.String(), Reason: reason})
}
