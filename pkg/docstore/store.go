package docstore

import (
	"context"
	"errors"
	"time"
)

// Collection names used by the chat tutor.
const (
	CollectionChatSessions = "chat_sessions"
	CollectionChatMessages = "chat_messages"
)

var ErrNotFound = errors.New("document not found")

// Document is a flat, loosely typed record. Field values keep whatever shape
// the backend decoded them into.
type Document struct {
	Id     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// Get returns the raw field value, or nil when absent.
func (d Document) Get(key string) interface{} {
	if d.Fields == nil {
		return nil
	}
	return d.Fields[key]
}

// Store is a remote document collection with no server-side predicates.
type Store interface {
	// GetCollection returns every document of the collection.
	GetCollection(ctx context.Context, name string) ([]Document, error)
	// CreateDocument stores fields under a new id assigned by the store.
	CreateDocument(ctx context.Context, name string, fields map[string]interface{}) (string, error)
	// UpdateDocument merges partial fields into an existing document.
	UpdateDocument(ctx context.Context, name, id string, fields map[string]interface{}) error
	DeleteDocument(ctx context.Context, name, id string) error
}

// Observer receives one call per store operation.
type Observer func(op, collection string, elapsed time.Duration, err error)

type observedStore struct {
	next    Store
	observe Observer
}

// WithObserver wraps s so every operation is reported to observe.
func WithObserver(s Store, observe Observer) Store {
	if observe == nil {
		return s
	}
	return &observedStore{next: s, observe: observe}
}

func (o *observedStore) GetCollection(ctx context.Context, name string) ([]Document, error) {
	start := time.Now()
	docs, err := o.next.GetCollection(ctx, name)
	o.observe("get_collection", name, time.Since(start), err)
	return docs, err
}

func (o *observedStore) CreateDocument(ctx context.Context, name string, fields map[string]interface{}) (string, error) {
	start := time.Now()
	id, err := o.next.CreateDocument(ctx, name, fields)
	o.observe("create", name, time.Since(start), err)
	return id, err
}

func (o *observedStore) UpdateDocument(ctx context.Context, name, id string, fields map[string]interface{}) error {
	start := time.Now()
	err := o.next.UpdateDocument(ctx, name, id, fields)
	o.observe("update", name, time.Since(start), err)
	return err
}

func (o *observedStore) DeleteDocument(ctx context.Context, name, id string) error {
	start := time.Now()
	err := o.next.DeleteDocument(ctx, name, id)
	o.observe("delete", name, time.Since(start), err)
	return err
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
