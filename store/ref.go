package store

import (
	"fmt"
	"strings"
)

// CollectionRef addresses a collection of documents, e.g. "owners/u1/dogs".
type CollectionRef struct {
	path string
}

// DocumentRef addresses a single document, e.g. "owners/u1/dogs/d1".
type DocumentRef struct {
	path string
}

// Collection returns a reference to a top-level collection.
func Collection(id string) CollectionRef {
	return CollectionRef{path: id}
}

// ParseDocumentRef parses a slash separated document path. A document path
// has an even number of non-empty segments.
func ParseDocumentRef(path string) (DocumentRef, error) {
	segs := strings.Split(path, "/")
	if len(segs) == 0 || len(segs)%2 != 0 {
		return DocumentRef{}, fmt.Errorf("invalid document path %q", path)
	}
	for _, s := range segs {
		if s == "" {
			return DocumentRef{}, fmt.Errorf("invalid document path %q: empty segment", path)
		}
	}
	return DocumentRef{path: path}, nil
}

// Doc returns a reference to the document with the given id in c.
func (c CollectionRef) Doc(id string) DocumentRef {
	return DocumentRef{path: c.path + "/" + id}
}

// ID returns the last segment of the collection path.
func (c CollectionRef) ID() string {
	return lastSegment(c.path)
}

// Path returns the full slash separated path.
func (c CollectionRef) Path() string { return c.path }

// Parent returns the document that owns c. Top-level collections have none.
func (c CollectionRef) Parent() (DocumentRef, bool) {
	i := strings.LastIndexByte(c.path, '/')
	if i < 0 {
		return DocumentRef{}, false
	}
	return DocumentRef{path: c.path[:i]}, true
}

// Query returns an unfiltered, unordered query over c.
func (c CollectionRef) Query() Query {
	return Query{collectionPath: c.path, collectionID: c.ID()}
}

// IsZero reports whether c is the zero reference.
func (c CollectionRef) IsZero() bool { return c.path == "" }

func (c CollectionRef) String() string { return c.path }

// Collection returns a reference to the subcollection id of d.
func (d DocumentRef) Collection(id string) CollectionRef {
	return CollectionRef{path: d.path + "/" + id}
}

// ID returns the document identifier (last path segment).
func (d DocumentRef) ID() string {
	return lastSegment(d.path)
}

// Path returns the full slash separated path.
func (d DocumentRef) Path() string { return d.path }

// Parent returns the collection containing d.
func (d DocumentRef) Parent() CollectionRef {
	i := strings.LastIndexByte(d.path, '/')
	if i < 0 {
		return CollectionRef{}
	}
	return CollectionRef{path: d.path[:i]}
}

// IsZero reports whether d is the zero reference.
func (d DocumentRef) IsZero() bool { return d.path == "" }

func (d DocumentRef) String() string { return d.path }

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
