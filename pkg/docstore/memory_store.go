package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps documents in a non-expiring go-cache. It is used for
// local development and tests.
type MemoryStore struct {
	cache *cache.Cache
	mu    sync.Mutex // serializes read-modify-write in UpdateDocument
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func memoryKey(collection, id string) string {
	return collection + "/" + id
}

func (s *MemoryStore) GetCollection(ctx context.Context, name string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := name + "/"
	docs := make([]Document, 0)
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		docs = append(docs, Document{
			Id:     strings.TrimPrefix(key, prefix),
			Fields: copyFields(item.Object.(map[string]interface{})),
		})
	}
	return docs, nil
}

func (s *MemoryStore) CreateDocument(ctx context.Context, name string, fields map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.New().String()
	if err := s.cache.Add(memoryKey(name, id), copyFields(fields), cache.NoExpiration); err != nil {
		return "", fmt.Errorf("create document in %s: %w", name, err)
	}
	return id, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, name, id string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey(name, id)
	x, found := s.cache.Get(key)
	if !found {
		return ErrNotFound
	}
	merged := copyFields(x.(map[string]interface{}))
	for k, v := range fields {
		merged[k] = v
	}
	s.cache.Set(key, merged, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := memoryKey(name, id)
	if _, found := s.cache.Get(key); !found {
		return ErrNotFound
	}
	s.cache.Delete(key)
	return nil
}

// Put stores fields under a caller-chosen id, replacing any existing
// document. Seeders and tests use it to control ids.
func (s *MemoryStore) Put(name, id string, fields map[string]interface{}) {
	s.cache.Set(memoryKey(name, id), copyFields(fields), cache.NoExpiration)
}
