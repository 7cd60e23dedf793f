// Package gate parks an upload while the user is anonymous and replays it
// once, after authentication.
package gate

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
)

// ReplayFunc runs the normal upload path for image.
type ReplayFunc func(ctx context.Context, image models.Blob) error

type Gate struct {
	isAuthenticated func() bool
	replay          ReplayFunc
	prompt          func()

	mu      sync.Mutex
	pending *models.Blob
	// ver changes whenever the slot is set or cleared by the user.
	ver uint64
}

// New builds a gate. prompt is called whenever an image gets parked and may
// be nil.
func New(isAuthenticated func() bool, replay ReplayFunc, prompt func()) *Gate {
	return &Gate{isAuthenticated: isAuthenticated, replay: replay, prompt: prompt}
}

// Attempt runs image through the upload path if the user is signed in and
// reports true. Otherwise it parks the image, replacing any parked one, asks
// for sign-in and reports false.
func (g *Gate) Attempt(ctx context.Context, image models.Blob) (bool, error) {
	if g.isAuthenticated() {
		return true, g.replay(ctx, image)
	}

	g.mu.Lock()
	g.pending = &image
	g.ver++
	g.mu.Unlock()

	if g.prompt != nil {
		g.prompt()
	}
	return false, nil
}

// OnAuthenticated replays the parked image, if any, exactly once. A failed
// replay parks the image again, unless it was replaced or abandoned in the
// meantime.
func (g *Gate) OnAuthenticated(ctx context.Context) error {
	g.mu.Lock()
	p, ver := g.pending, g.ver
	g.pending = nil
	g.mu.Unlock()

	if p == nil {
		return nil
	}
	if err := g.replay(ctx, *p); err != nil {
		g.mu.Lock()
		if g.ver == ver {
			g.pending = p
		}
		g.mu.Unlock()
		return err
	}
	return nil
}

// Abandon drops the parked image.
func (g *Gate) Abandon() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
	g.ver++
}

func (g *Gate) Pending() (models.Blob, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return models.Blob{}, false
	}
	return *g.pending, true
}
