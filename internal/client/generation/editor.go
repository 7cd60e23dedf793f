package generation

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
)

// Finder looks work items up by id.
type Finder interface {
	Find(id string) (models.WorkItem, bool)
}

// Editor is the editing session for one open work item. It holds the
// parameters and mode, and allows at most one outstanding generation.
//
// Opening an item that has no model yet generates once, without download.
// Parameter edits never generate; Apply and Download do.
type Editor struct {
	pipeline *Pipeline
	items    Finder

	mu     sync.Mutex
	itemID string
	params models.Parameters
	mode   models.Mode
	busy   bool
	idle   chan struct{}
	seen   map[string]bool
}

func NewEditor(p *Pipeline, items Finder) *Editor {
	return &Editor{
		pipeline: p,
		items:    items,
		params:   models.DefaultParameters(),
		mode:     models.ModeBoth,
		seen:     make(map[string]bool),
	}
}

// Open makes id the current item. An item with a stored snapshot brings its
// settings back; otherwise the current settings stay. The returned item
// reflects any generation Open triggered.
//
// The first open of an item without a model generates it. If another
// generation is running, Open waits for it to finish first.
func (e *Editor) Open(ctx context.Context, id string) (models.WorkItem, error) {
	item, ok := e.items.Find(id)
	if !ok {
		return models.WorkItem{}, workspace.ErrNotFound
	}

	e.mu.Lock()
	e.itemID = id
	if item.Snapshot != nil {
		e.params = item.Snapshot.Params
		e.mode = item.Snapshot.Mode
	}
	auto := !item.HasArtifact() && !e.seen[id]
	e.mu.Unlock()

	if !auto {
		return item, nil
	}
	res, err := e.generate(ctx, id, false, true)
	if err != nil {
		return item, err
	}
	return res.Item, nil
}

// Close leaves the current item; settings are kept for the next one.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.itemID = ""
}

// Current returns the open item.
func (e *Editor) Current() (models.WorkItem, bool) {
	e.mu.Lock()
	id := e.itemID
	e.mu.Unlock()
	if id == "" {
		return models.WorkItem{}, false
	}
	return e.items.Find(id)
}

func (e *Editor) Params() models.Parameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

func (e *Editor) Mode() models.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Editor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Set changes one parameter by name.
func (e *Editor) Set(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Set(name, value)
}

func (e *Editor) SetMode(m models.Mode) error {
	if !m.Valid() {
		return models.ErrUnknownMode
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = m
	return nil
}

// Reset restores the default parameters.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = models.DefaultParameters()
}

// Apply regenerates the open item with the current settings.
func (e *Editor) Apply(ctx context.Context) (Result, error) {
	return e.run(ctx, false)
}

// Download regenerates the open item and saves the model.
func (e *Editor) Download(ctx context.Context) (Result, error) {
	return e.run(ctx, true)
}

func (e *Editor) run(ctx context.Context, download bool) (Result, error) {
	e.mu.Lock()
	id := e.itemID
	e.mu.Unlock()
	if id == "" {
		return Result{}, ErrNoEditor
	}
	return e.generate(ctx, id, download, false)
}

// generate runs one generation for id. With auto set it waits for a running
// generation instead of failing with ErrBusy, and skips items that were
// already auto-generated or got a model in the meantime.
func (e *Editor) generate(ctx context.Context, id string, download, auto bool) (Result, error) {
	e.mu.Lock()
	for e.busy {
		if !auto {
			e.mu.Unlock()
			return Result{}, ErrBusy
		}
		idle := e.idle
		e.mu.Unlock()
		select {
		case <-idle:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		e.mu.Lock()
	}

	item, ok := e.items.Find(id)
	if !ok {
		e.mu.Unlock()
		return Result{}, workspace.ErrNotFound
	}
	if auto && (e.seen[id] || item.HasArtifact()) {
		e.mu.Unlock()
		return Result{Item: item}, nil
	}
	if auto {
		e.seen[id] = true
	}
	e.busy = true
	e.idle = make(chan struct{})
	params, mode := e.params, e.mode
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.busy = false
		close(e.idle)
		e.mu.Unlock()
	}()

	return e.pipeline.Generate(ctx, item, params, mode, download)
}
