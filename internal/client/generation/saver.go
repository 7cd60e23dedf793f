package generation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/cookiecutter/internal/filex"
)

// Saver writes a generated model somewhere the user can pick it up.
type Saver interface {
	// Save stores data under a file name derived from name and returns the
	// final location.
	Save(name string, data []byte) (string, error)
}

// DirSaver writes <name without extension>.stl into Dir.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(name string, data []byte) (string, error) {
	dir, err := filex.EnsureDir(s.Dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filex.ReplaceExt(name, ".stl"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
