package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory ObjectStore used by tests and small
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
	}
}

// Put stores data under key with the given content type.
func (s *MemoryStore) Put(key, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{contentType: contentType, data: data}
}

// Get implements ObjectStore.
func (s *MemoryStore) Get(ctx context.Context, key string) (*ObjectHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return NewObjectHandleBytes(key, obj.contentType, obj.data), nil
}

var _ ObjectStore = (*MemoryStore)(nil)
