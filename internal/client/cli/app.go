package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/cookiecutter/internal/client/gate"
	"github.com/dmitrijs2005/cookiecutter/internal/client/generation"
	"github.com/dmitrijs2005/cookiecutter/internal/client/session"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
)

// Deps are the components the App drives. All fields are required except
// In and Out, which default to stdin and stdout.
type Deps struct {
	Repo     *workspace.Repository
	Editor   *generation.Editor
	Pipeline *generation.Pipeline
	Session  *session.Resolver
	Log      logging.Logger

	In  io.Reader
	Out io.Writer
}

type App struct {
	repo     *workspace.Repository
	editor   *generation.Editor
	pipeline *generation.Pipeline
	session  *session.Resolver
	gate     *gate.Gate
	log      logging.Logger

	reader *bufio.Reader
	out    io.Writer

	outMu sync.Mutex
	wg    sync.WaitGroup
}

// NewApp builds the App and its pending-upload gate. The gate is subscribed
// to sign-in events, so a parked upload is replayed as soon as the session
// becomes authenticated.
func NewApp(d Deps) *App {
	in, out := d.In, d.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	a := &App{
		repo:     d.Repo,
		editor:   d.Editor,
		pipeline: d.Pipeline,
		session:  d.Session,
		log:      d.Log,
		reader:   bufio.NewReader(in),
		out:      out,
	}
	a.gate = gate.New(d.Session.State().Authenticated, a.replayUpload, a.promptSignIn)
	d.Session.OnAuthenticated(a.gate.OnAuthenticated)
	return a
}

// Run resolves the session for deepLink, hydrates the workspace and runs the
// REPL until the user exits or input ends. It returns after background
// generations have finished.
func (a *App) Run(ctx context.Context, deepLink string) error {
	defer a.Wait()

	res, err := a.session.Resolve(ctx, deepLink)
	if err != nil {
		return err
	}
	if res.Kind == session.KindRecovery {
		if err := a.resetPassword(ctx, res.Token); err != nil {
			a.println("Password reset aborted:", err)
		}
	}

	if err := a.repo.Hydrate(ctx); err != nil {
		return err
	}

	a.println("cookiecutter CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

// Wait blocks until background generations are done.
func (a *App) Wait() { a.wg.Wait() }

func (a *App) isLoggedIn() bool { return a.session.State().Authenticated() }

func (a *App) status() string {
	s := "anonymous"
	if st := a.session.State().Snapshot(); st.Authenticated {
		s = "signed in"
		if sub := session.Subject(st.Credential); sub != "" {
			s = sub
		}
	}
	if a.editor.Busy() || a.pipeline.Busy() {
		s += " *"
	}
	return s
}

// spawn runs fn in the background. It is detached from ctx cancellation so a
// generation started by a short-lived caller still completes.
func (a *App) spawn(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := fn(ctx); err != nil {
			a.log.Warn(ctx, "background task failed", "task", name, "error", err)
			a.println(name+":", describe(err))
		}
	}()
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
