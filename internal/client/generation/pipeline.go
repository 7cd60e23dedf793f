// Package generation drives requests to the remote generator and commits
// their results into the workspace.
package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/client"
	"github.com/dmitrijs2005/cookiecutter/internal/client/metrics"
	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/recipe"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
	"github.com/dmitrijs2005/cookiecutter/internal/filex"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/dmitrijs2005/cookiecutter/internal/client/generation"

var (
	ErrBusy       = errors.New("a generation is already running")
	ErrNoEditor   = errors.New("no work item is open")
	ErrSuperseded = errors.New("result superseded by a newer generation")
	ErrNoArtifact = errors.New("work item has no generated model")
)

type State int

const (
	Idle State = iota
	Requesting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Requesting:
		return "requesting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Committer persists a generation result.
type Committer interface {
	Update(ctx context.Context, id string, p workspace.Patch) (models.WorkItem, error)
}

// Notifier shows foreground outcomes to the user.
type Notifier interface {
	Success(text string)
	Error(text string)
}

// Result of one generation.
type Result struct {
	Item models.WorkItem
	// Path is where the model was written, for download requests.
	Path string
}

type Pipeline struct {
	gen     client.Generator
	repo    Committer
	saver   Saver
	notify  Notifier
	log     logging.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer

	mu       sync.Mutex
	state    State
	inflight int
	issued   map[string]uint64
	applied  map[string]uint64

	commitMu sync.Mutex
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) { p.tracer = tp.Tracer(instrumentationName) }
}

func NewPipeline(gen client.Generator, repo Committer, saver Saver, n Notifier, log logging.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:     gen,
		repo:    repo,
		saver:   saver,
		notify:  n,
		log:     log.With("component", "generation"),
		tracer:  otel.Tracer(instrumentationName),
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// State is the outcome of the most recent request, or Requesting while any
// request is outstanding.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight > 0
}

// Generate requests a model for item with the given settings and commits
// it. With download set, the model is also saved and the outcome notified;
// otherwise failures are only logged. The error is returned either way.
func (p *Pipeline) Generate(ctx context.Context, item models.WorkItem, params models.Parameters, mode models.Mode, download bool) (res Result, err error) {
	ctx, span := p.tracer.Start(ctx, "generation.generate", trace.WithAttributes(
		attribute.String("item.id", item.ID),
		attribute.String("mode", mode.String()),
		attribute.Bool("download", download),
	))
	defer span.End()

	seq := p.begin(item.ID)
	started := time.Now()
	outcome := metrics.OutcomeFailure
	defer func() {
		p.finish(err == nil || errors.Is(err, ErrSuperseded))
		p.metrics.ObserveGeneration(outcome, time.Since(started))
		if err != nil && !errors.Is(err, ErrSuperseded) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("outcome", outcome))
	}()

	req := recipe.Compile(mode, params)
	stl, err := p.gen.Generate(ctx, req, item.Source)
	if err != nil {
		p.fail(ctx, item, download, err)
		return Result{}, fmt.Errorf("generate %s: %w", item.ID, err)
	}

	artifact := models.Blob{
		Name:        filex.ReplaceExt(modelName(item), ".stl"),
		ContentType: "model/stl",
		Data:        stl,
	}
	updated, err := p.commit(ctx, item.ID, seq, workspace.Patch{
		Artifact: &artifact,
		Snapshot: &models.Snapshot{Mode: mode, Params: params},
	})
	if errors.Is(err, ErrSuperseded) {
		outcome = metrics.OutcomeDiscarded
		p.log.Info(ctx, "discarding superseded generation result", "id", item.ID, "seq", seq)
		return Result{}, err
	}
	if err != nil {
		p.fail(ctx, item, download, err)
		return Result{}, fmt.Errorf("commit %s: %w", item.ID, err)
	}
	outcome = metrics.OutcomeSuccess
	res.Item = updated
	p.log.Info(ctx, "model generated", "id", item.ID, "bytes", len(stl), "mode", mode.String())

	if download {
		path, err := p.saver.Save(artifact.Name, stl)
		if err != nil {
			p.fail(ctx, item, download, err)
			return res, fmt.Errorf("save %s: %w", item.ID, err)
		}
		res.Path = path
		p.notify.Success("Saved " + path)
	}
	return res, nil
}

// Export saves the stored artifact of item without generating again.
func (p *Pipeline) Export(ctx context.Context, item models.WorkItem) (string, error) {
	if !item.HasArtifact() {
		return "", ErrNoArtifact
	}
	path, err := p.saver.Save(modelName(item), item.Artifact.Data)
	if err != nil {
		p.notify.Error("Could not save the model: " + err.Error())
		return "", fmt.Errorf("save %s: %w", item.ID, err)
	}
	p.log.Info(ctx, "model exported", "id", item.ID, "path", path)
	p.notify.Success("Saved " + path)
	return path, nil
}

func (p *Pipeline) begin(id string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued[id]++
	p.inflight++
	p.state = Requesting
	return p.issued[id]
}

func (p *Pipeline) finish(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--
	if ok {
		p.state = Succeeded
	} else {
		p.state = Failed
	}
}

// commit applies the result unless a newer request for the same item has
// already been applied.
func (p *Pipeline) commit(ctx context.Context, id string, seq uint64, patch workspace.Patch) (models.WorkItem, error) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	p.mu.Lock()
	stale := seq < p.applied[id]
	p.mu.Unlock()
	if stale {
		return models.WorkItem{}, ErrSuperseded
	}

	updated, err := p.repo.Update(ctx, id, patch)
	if err != nil {
		return models.WorkItem{}, err
	}

	p.mu.Lock()
	p.applied[id] = seq
	p.mu.Unlock()
	return updated, nil
}

func (p *Pipeline) fail(ctx context.Context, item models.WorkItem, download bool, err error) {
	p.log.Warn(ctx, "generation failed", "id", item.ID, "error", err)
	if download {
		p.notify.Error("Generation failed: " + client.Detail(err))
	}
}

func modelName(item models.WorkItem) string {
	name := item.DisplayName
	if name == "" {
		name = item.Source.Name
	}
	return name
}
