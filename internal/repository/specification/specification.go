package specification

import "learnly-chat-be/pkg/docstore"

// Specification is a predicate applied locally to scanned documents; the
// document store offers no server-side filtering.
type Specification interface {
	IsSatisfiedBy(doc docstore.Document) bool
}

// Apply keeps the documents satisfying every spec, preserving order.
func Apply(docs []docstore.Document, specs ...Specification) []docstore.Document {
	if len(specs) == 0 {
		return docs
	}
	out := make([]docstore.Document, 0, len(docs))
	for _, doc := range docs {
		if satisfiesAll(doc, specs) {
			out = append(out, doc)
		}
	}
	return out
}

func satisfiesAll(doc docstore.Document, specs []Specification) bool {
	for _, spec := range specs {
		if !spec.IsSatisfiedBy(doc) {
			return false
		}
	}
	return true
}
