package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cookiecutter/internal/client/generation"
	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
)

func (a *App) SetMode(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usage("mode <both|cutter|stamp>")
	}
	m, err := models.ParseMode(args[0])
	if err != nil {
		return err
	}
	if err := a.editor.SetMode(m); err != nil {
		return err
	}
	a.printf("Mode set to %s\n", m)
	return nil
}

// Set changes one parameter. Values are kept as typed; anything that is not a
// number counts as 0 when a model is generated.
func (a *App) Set(_ context.Context, args []string) error {
	if len(args) != 2 {
		return usage("set <param> <value>")
	}
	return a.editor.Set(args[0], args[1])
}

func (a *App) Params(_ context.Context, _ []string) error {
	p := a.editor.Params()
	a.printf("mode = %s\n", a.editor.Mode())
	for _, name := range models.ParameterNames() {
		v, err := p.Get(name)
		if err != nil {
			return err
		}
		a.printf("%s = %s\n", name, v)
	}
	return nil
}

func (a *App) Reset(_ context.Context, _ []string) error {
	a.editor.Reset()
	a.println("Parameters reset to defaults")
	return nil
}

// Apply regenerates the open item in the background.
func (a *App) Apply(ctx context.Context, _ []string) error {
	if err := a.checkEditor(); err != nil {
		return err
	}
	a.spawn(ctx, "apply", func(ctx context.Context) error {
		res, err := a.editor.Apply(ctx)
		if errors.Is(err, generation.ErrSuperseded) {
			return nil
		}
		if err != nil {
			return err
		}
		a.printf("Model updated for %s\n", res.Item.DisplayName)
		return nil
	})
	return nil
}

// Download regenerates and saves the open item. With an id that is not the
// open item, the stored model of that item is saved as is.
func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usage("download [id]")
	}
	cur, open := a.editor.Current()
	if len(args) == 1 && (!open || cur.ID != args[0]) {
		item, ok := a.repo.Find(args[0])
		if !ok {
			return workspace.ErrNotFound
		}
		_, err := a.pipeline.Export(ctx, item)
		return err
	}
	if err := a.checkEditor(); err != nil {
		return err
	}
	a.spawn(ctx, "download", func(ctx context.Context) error {
		_, err := a.editor.Download(ctx)
		if errors.Is(err, generation.ErrSuperseded) {
			return nil
		}
		return err
	})
	return nil
}

// checkEditor reports the errors the editor would return, before a
// background task is started for nothing.
func (a *App) checkEditor() error {
	if _, ok := a.editor.Current(); !ok {
		return errNoOpenItem
	}
	if a.editor.Busy() {
		return generation.ErrBusy
	}
	return nil
}
