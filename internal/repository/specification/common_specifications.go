package specification

import "learnly-chat-be/pkg/docstore"

// ByID matches a single document id.
type ByID struct {
	ID string
}

func (s ByID) IsSatisfiedBy(doc docstore.Document) bool {
	return doc.Id == s.ID
}

// FilterBy matches a string-valued field by equality.
type FilterBy struct {
	Field string
	Value string
}

func (s FilterBy) IsSatisfiedBy(doc docstore.Document) bool {
	v, ok := doc.Get(s.Field).(string)
	return ok && v == s.Value
}
