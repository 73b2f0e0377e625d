package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryArchive keeps archived objects in process memory. It is used when
// object storage is not configured.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryArchive creates an empty MemoryArchive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		objects: make(map[string]memoryObject),
		baseURL: "memory://archive/",
	}
}

// Put stores a copy of data under key
func (a *MemoryArchive) Put(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Exists reports whether key is stored
func (a *MemoryArchive) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.objects[key]
	return ok, nil
}

// DownloadURL returns a memory:// reference; it is not fetchable over HTTP
func (a *MemoryArchive) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	return a.baseURL + key, time.Time{}, nil
}

// Get returns the stored bytes and content type of key
func (a *MemoryArchive) Get(key string) ([]byte, string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	obj, ok := a.objects[key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}

// Keys lists the stored keys in order
func (a *MemoryArchive) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.objects))
	for k := range a.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
