package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
)

// Upload reads an image from disk and hands it to the gate. Signed out, the
// image is parked until sign-in.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("upload <path>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	image := models.NewBlob(args[0], mime.TypeByExtension(filepath.Ext(args[0])), data)

	_, err = a.gate.Attempt(ctx, image)
	return err
}

// replayUpload is the accepted upload path: the item becomes visible
// immediately and is opened in the editor, which generates once.
func (a *App) replayUpload(ctx context.Context, image models.Blob) error {
	item, err := a.repo.Create(ctx, image)
	if err != nil {
		return err
	}
	a.printf("Created %s (%s)\n", item.ID, item.DisplayName)
	a.spawn(ctx, "generate", func(ctx context.Context) error {
		opened, err := a.editor.Open(ctx, item.ID)
		if err != nil {
			return err
		}
		a.printf("Model ready for %s\n", opened.DisplayName)
		return nil
	})
	return nil
}

func (a *App) List(_ context.Context, _ []string) error {
	items := a.repo.List()
	if len(items) == 0 {
		a.println("Workspace is empty")
		return nil
	}
	for _, it := range items {
		a.printf("%s  %-24s %-12s %s\n", it.ID, it.DisplayName, it.Status(), it.LastModified.Local().Format(time.DateTime))
	}
	return nil
}

// Open makes an item current. An item without a model yet is generated in
// the background.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("open <id>")
	}
	item, ok := a.repo.Find(args[0])
	if !ok {
		return workspace.ErrNotFound
	}
	if item.HasArtifact() {
		_, err := a.editor.Open(ctx, item.ID)
		if err == nil {
			a.printf("Opened %s\n", item.DisplayName)
		}
		return err
	}
	a.printf("Opening %s, generating model...\n", item.DisplayName)
	a.spawn(ctx, "open", func(ctx context.Context) error {
		opened, err := a.editor.Open(ctx, item.ID)
		if err != nil {
			return err
		}
		if opened.HasArtifact() {
			a.printf("Model ready for %s\n", opened.DisplayName)
		}
		return nil
	})
	return nil
}

// Show prints the open item.
func (a *App) Show(_ context.Context, _ []string) error {
	item, ok := a.editor.Current()
	if !ok {
		return errNoOpenItem
	}
	a.printf("ID:       %s\n", item.ID)
	a.printf("Name:     %s\n", item.DisplayName)
	a.printf("Source:   %s (%s, %d bytes)\n", item.Source.Name, item.Source.ContentType, item.Source.Size())
	a.printf("Status:   %s\n", item.Status())
	if item.HasArtifact() {
		a.printf("Model:    %s (%d bytes)\n", item.Artifact.Name, item.Artifact.Size())
		a.printf("Preview:  %s\n", item.ArtifactURL)
	}
	a.printf("Created:  %s\n", item.CreatedAt.Local().Format(time.DateTime))
	a.printf("Modified: %s\n", item.LastModified.Local().Format(time.DateTime))
	a.printf("Mode:     %s\n", a.editor.Mode())
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("rename <id> <name>")
	}
	item, err := a.repo.Rename(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a.printf("Renamed %s to %s\n", item.ID, item.DisplayName)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}
	if err := a.repo.Delete(ctx, args[0]); err != nil {
		return err
	}
	if cur, ok := a.editor.Current(); !ok || cur.ID == args[0] {
		a.editor.Close()
	}
	a.printf("Deleted %s\n", args[0])
	return nil
}
