// Package blobs issues session-local, revocable handles for in-memory blobs.
// A handle is a URL under the registry base; with the preview server running
// the base is http://<addr>/blobs/ and the handle can be opened by a viewer.
package blobs

import (
	"strings"
	"sync"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/google/uuid"
)

// DefaultBase is used when no preview server is bound.
const DefaultBase = "blob:"

type Registry struct {
	mu    sync.RWMutex
	base  string
	blobs map[string]models.Blob
}

func NewRegistry(base string) *Registry {
	if base == "" {
		base = DefaultBase
	}
	return &Registry{base: base, blobs: make(map[string]models.Blob)}
}

// Register stores b and returns a new handle for it.
func (r *Registry) Register(b models.Blob) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[id] = b
	return r.base + id
}

// Revoke invalidates handle. Unknown or empty handles are ignored.
func (r *Registry) Revoke(handle string) {
	id, ok := r.id(handle)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blobs, id)
}

// Resolve returns the blob behind a full handle.
func (r *Registry) Resolve(handle string) (models.Blob, bool) {
	id, ok := r.id(handle)
	if !ok {
		return models.Blob{}, false
	}
	return r.Get(id)
}

// Get looks a blob up by the id part of its handle.
func (r *Registry) Get(id string) (models.Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[id]
	return b, ok
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

func (r *Registry) id(handle string) (string, bool) {
	if !strings.HasPrefix(handle, r.base) {
		return "", false
	}
	id := strings.TrimPrefix(handle, r.base)
	return id, id != ""
}
