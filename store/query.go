package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Direction is the sort direction of an Order.
type Direction int

const (
	// Asc sorts in ascending order.
	Asc Direction = iota
	// Desc sorts in descending order.
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Filter is an equality predicate on a document field.
type Filter struct {
	Field string
	Value any
}

// Order is a sort key.
type Order struct {
	Field     string
	Direction Direction
}

// Query describes a multi-document read target: a single collection or, for
// collection group queries, every collection with a given id regardless of
// where it lives in the hierarchy.
//
// Query values are immutable; Where and OrderBy return modified copies.
type Query struct {
	collectionPath string
	collectionID   string
	group          bool
	filters        []Filter
	orders         []Order
}

// CollectionGroup returns a query over every collection named id.
func CollectionGroup(id string) Query {
	return Query{collectionID: id, group: true}
}

// WhereEqual returns a copy of q restricted to documents whose field equals value.
func (q Query) WhereEqual(field string, value any) Query {
	q.filters = append(append([]Filter(nil), q.filters...), Filter{Field: field, Value: value})
	return q
}

// OrderBy returns a copy of q with an additional sort key.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.orders = append(append([]Order(nil), q.orders...), Order{Field: field, Direction: dir})
	return q
}

// IsGroup reports whether q is a collection group query.
func (q Query) IsGroup() bool { return q.group }

// CollectionID returns the id of the collection(s) q reads.
func (q Query) CollectionID() string { return q.collectionID }

// Collection returns the collection q reads. It is the zero value for
// collection group queries.
func (q Query) Collection() CollectionRef {
	return CollectionRef{path: q.collectionPath}
}

// Filters returns the equality filters of q.
func (q Query) Filters() []Filter { return append([]Filter(nil), q.filters...) }

// Orders returns the sort keys of q.
func (q Query) Orders() []Order { return append([]Order(nil), q.orders...) }

// IsZero reports whether q targets nothing.
func (q Query) IsZero() bool { return q.collectionID == "" }

// Contains reports whether ref lives in a collection read by q, ignoring filters.
func (q Query) Contains(ref DocumentRef) bool {
	parent := ref.Parent()
	if q.group {
		return parent.ID() == q.collectionID
	}
	return parent.path == q.collectionPath
}

// Matches reports whether doc is part of q's result set.
func (q Query) Matches(doc Document) bool {
	if !q.Contains(doc.Ref) {
		return false
	}
	for _, f := range q.filters {
		v, ok := doc.Fields[f.Field]
		if !ok || CompareValues(v, f.Value) != 0 {
			return false
		}
	}
	return true
}

// Sort orders docs by q's sort keys. Documents missing an ordered field sort
// first, and the document path breaks ties so results are deterministic.
func (q Query) Sort(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return q.compare(docs[i], docs[j]) < 0
	})
}

func (q Query) compare(a, b Document) int {
	for _, o := range q.orders {
		c := CompareValues(a.Fields[o.Field], b.Fields[o.Field])
		if o.Direction == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return strings.Compare(a.Ref.path, b.Ref.path)
}

func (q Query) String() string {
	var b strings.Builder
	if q.group {
		fmt.Fprintf(&b, "group(%s)", q.collectionID)
	} else {
		b.WriteString(q.collectionPath)
	}
	for _, f := range q.filters {
		fmt.Fprintf(&b, " where %s == %v", f.Field, f.Value)
	}
	for _, o := range q.orders {
		fmt.Fprintf(&b, " order by %s %s", o.Field, o.Direction)
	}
	return b.String()
}

// Type ranks used to order values of different types.
const (
	rankNull = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

// CompareValues orders two field values. Values of different types order by
// type: null, bool, number, timestamp, string, everything else. It returns
// -1, 0 or +1.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case rankNull:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case time.Time:
		return rankTime
	case string:
		return rankString
	}
	return rankOther
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
