package scope

import "github.com/jacentio/kennel/model"

// RootCollection is the top-level collection holding one document per owner.
const RootCollection = "owners"

// Relationship defines where a child kind lives under its parent.
type Relationship struct {
	// ParentKind is the parent entity kind (e.g., KindDog).
	ParentKind Kind

	// ChildKind is the child entity kind (e.g., KindSchedule).
	ChildKind Kind

	// Collection is the child collection id under the parent document (e.g., "schedules").
	Collection string

	// ParentKeyField is the field in the child that references the parent (e.g., "dogId").
	ParentKeyField string
}

// Registry holds the known parent-child relationships of the hierarchy.
type Registry struct {
	relationships []Relationship
	byParent      map[Kind][]Relationship
	byChild       map[Kind]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		relationships: []Relationship{},
		byParent:      make(map[Kind][]Relationship),
		byChild:       make(map[Kind]Relationship),
	}
}

// DefaultRegistry returns the owner/dog/schedule/certificate hierarchy:
//
//	owners/{ownerId}/dogs/{dogId}/schedules/{scheduleId}
//	owners/{ownerId}/dogs/{dogId}/certificates/{certificateId}
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Relationship{
		ParentKind:     KindOwner,
		ChildKind:      KindDog,
		Collection:     "dogs",
		ParentKeyField: model.FieldOwnerID,
	})
	r.Register(Relationship{
		ParentKind:     KindDog,
		ChildKind:      KindSchedule,
		Collection:     "schedules",
		ParentKeyField: model.FieldDogID,
	})
	r.Register(Relationship{
		ParentKind:     KindDog,
		ChildKind:      KindCertificate,
		Collection:     "certificates",
		ParentKeyField: model.FieldDogID,
	})
	return r
}

// Register adds a relationship to the registry. A kind has one parent; a
// later registration for the same child kind replaces the earlier one.
func (r *Registry) Register(rel Relationship) {
	if old, ok := r.byChild[rel.ChildKind]; ok {
		r.relationships = removeRelationship(r.relationships, old)
		r.byParent[old.ParentKind] = removeRelationship(r.byParent[old.ParentKind], old)
	}
	r.relationships = append(r.relationships, rel)
	r.byParent[rel.ParentKind] = append(r.byParent[rel.ParentKind], rel)
	r.byChild[rel.ChildKind] = rel
}

// ChildrenOf returns all child relationships for a given parent kind.
func (r *Registry) ChildrenOf(parent Kind) []Relationship {
	return r.byParent[parent]
}

// ParentOf returns the relationship placing child under its parent.
func (r *Registry) ParentOf(child Kind) (Relationship, bool) {
	rel, ok := r.byChild[child]
	return rel, ok
}

// AllRelationships returns all registered relationships.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}

// HasChildren returns true if the parent kind has any registered child relationships.
func (r *Registry) HasChildren(parent Kind) bool {
	return len(r.byParent[parent]) > 0
}

func removeRelationship(rels []Relationship, rel Relationship) []Relationship {
	out := rels[:0:0]
	for _, r := range rels {
		if r != rel {
			out = append(out, r)
		}
	}
	return out
}
