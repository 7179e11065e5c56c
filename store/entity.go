package store

// Codec is the explicit schema of an entity type: which fields it stores and
// how to rebuild it from a document.
//
// Encode must not include the document id; Decode takes it from doc.Ref.
type Codec[T any] interface {
	// Encode returns the stored fields of v.
	Encode(v T) Fields

	// Decode builds a T from doc. A missing or mistyped field is an error.
	Decode(doc Document) (T, error)
}

// Update is one partial-field update of a batch.
type Update struct {
	// Ref is the document to update. It must exist.
	Ref DocumentRef

	// Fields are merged into the document; fields not listed are kept.
	Fields Fields
}

// UpdateOf builds an Update that writes every stored field of v.
func UpdateOf[T any](codec Codec[T], v T, ref DocumentRef) Update {
	return Update{Ref: ref, Fields: codec.Encode(v)}
}
