// Package workspace owns the in-memory work-item collection and keeps it in
// sync with the durable store.
//
// The collection becomes writable only after Hydrate has finished, so a
// fresh (empty) state can never overwrite saved work. Every mutation writes
// the complete collection back; writes are serialized and tagged with a
// revision, and an older revision never replaces a newer one.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/metrics"
	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrNotHydrated     = errors.New("workspace is not hydrated yet")
	ErrAlreadyHydrated = errors.New("workspace already hydrated")
	ErrNotFound        = errors.New("work item not found")
)

// Handles issues and revokes session-local artifact handles.
type Handles interface {
	Register(b models.Blob) string
	Revoke(handle string)
	Len() int
}

// Patch lists the fields to change; nil fields are left alone.
type Patch struct {
	Artifact    *models.Blob
	Snapshot    *models.Snapshot
	DisplayName *string
}

type hydrationState int

const (
	stateNew hydrationState = iota
	stateHydrating
	stateReady
)

type Repository struct {
	store   store.Store
	handles Handles
	log     logging.Logger
	metrics *metrics.Collector

	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	state hydrationState
	items []models.WorkItem // newest first
	rev   uint64

	saveMu sync.Mutex
	saved  uint64
}

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(r *Repository) { r.metrics = m }
}

func New(st store.Store, handles Handles, log logging.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:   st,
		handles: handles,
		log:     log.With("component", "workspace"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Hydrate loads the saved collection. It may run once. A load failure is
// logged and leaves the workspace empty but writable.
func (r *Repository) Hydrate(ctx context.Context) error {
	r.mu.Lock()
	if r.state != stateNew {
		r.mu.Unlock()
		return ErrAlreadyHydrated
	}
	r.state = stateHydrating
	r.mu.Unlock()

	items, err := r.store.Load(ctx)
	if err != nil {
		r.log.Error(ctx, "failed to load workspace, starting empty", "error", err)
		items = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make([]models.WorkItem, 0, len(items))
	for _, it := range items {
		it.ArtifactURL = ""
		if it.Artifact != nil {
			it.ArtifactURL = r.handles.Register(*it.Artifact)
		}
		r.items = append(r.items, it)
	}
	r.state = stateReady
	r.observeLocked()
	r.log.Info(ctx, "workspace hydrated", "items", len(r.items))
	return nil
}

// Hydrated reports whether writes are accepted.
func (r *Repository) Hydrated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateReady
}

// Create adds a new item for source at the front of the collection.
func (r *Repository) Create(ctx context.Context, source models.Blob) (models.WorkItem, error) {
	r.mu.Lock()
	if r.state != stateReady {
		r.mu.Unlock()
		return models.WorkItem{}, ErrNotHydrated
	}
	now := r.now()
	it := models.WorkItem{
		ID:           r.newID(),
		Source:       source,
		DisplayName:  source.Name,
		CreatedAt:    now,
		LastModified: now,
	}
	r.items = append([]models.WorkItem{it}, r.items...)
	rev, snap := r.commitLocked()
	r.mu.Unlock()

	r.persist(ctx, rev, snap)
	r.log.Debug(ctx, "work item created", "id", it.ID, "name", it.DisplayName)
	return it.Clone(), nil
}

// Update applies p to the item with the given id. A new artifact gets a new
// handle; the handle it replaces is revoked once the change is committed.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (models.WorkItem, error) {
	r.mu.Lock()
	if r.state != stateReady {
		r.mu.Unlock()
		return models.WorkItem{}, ErrNotHydrated
	}
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return models.WorkItem{}, ErrNotFound
	}

	it := r.items[i].Clone()
	var superseded string
	if p.Artifact != nil {
		a := *p.Artifact
		superseded = it.ArtifactURL
		it.Artifact = &a
		it.ArtifactURL = r.handles.Register(a)
	}
	if p.Snapshot != nil {
		s := *p.Snapshot
		it.Snapshot = &s
	}
	if p.DisplayName != nil {
		it.DisplayName = *p.DisplayName
	}
	it.LastModified = r.now()
	r.items[i] = it
	rev, snap := r.commitLocked()
	r.mu.Unlock()

	if superseded != "" {
		r.handles.Revoke(superseded)
	}
	r.persist(ctx, rev, snap)
	return it.Clone(), nil
}

func (r *Repository) Rename(ctx context.Context, id, name string) (models.WorkItem, error) {
	return r.Update(ctx, id, Patch{DisplayName: &name})
}

// Delete removes the item and revokes its artifact handle.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if r.state != stateReady {
		r.mu.Unlock()
		return ErrNotHydrated
	}
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return ErrNotFound
	}
	handle := r.items[i].ArtifactURL
	r.items = append(r.items[:i:i], r.items[i+1:]...)
	rev, snap := r.commitLocked()
	r.mu.Unlock()

	if handle != "" {
		r.handles.Revoke(handle)
	}
	r.persist(ctx, rev, snap)
	return nil
}

func (r *Repository) Find(id string) (models.WorkItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return models.WorkItem{}, false
	}
	return r.items[i].Clone(), true
}

// List returns the items, most recent first.
func (r *Repository) List() []models.WorkItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.WorkItem, len(r.items))
	for i, it := range r.items {
		out[i] = it.Clone()
	}
	return out
}

func (r *Repository) indexLocked(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

// commitLocked bumps the revision and copies the collection for persist.
func (r *Repository) commitLocked() (uint64, []models.WorkItem) {
	r.rev++
	snap := make([]models.WorkItem, len(r.items))
	for i, it := range r.items {
		snap[i] = it.Clone()
		snap[i].ArtifactURL = ""
	}
	r.observeLocked()
	return r.rev, snap
}

func (r *Repository) observeLocked() {
	r.metrics.SetWorkItems(len(r.items))
	r.metrics.SetHandles(r.handles.Len())
}

func (r *Repository) persist(ctx context.Context, rev uint64, items []models.WorkItem) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if rev <= r.saved {
		r.log.Debug(ctx, "skipping stale workspace write", "rev", rev, "saved", r.saved)
		return
	}
	err := r.store.Save(ctx, items)
	r.metrics.ObserveStoreWrite(err)
	if err != nil {
		r.log.Error(ctx, "failed to persist workspace", "rev", rev, "error", err)
		return
	}
	r.saved = rev
}
