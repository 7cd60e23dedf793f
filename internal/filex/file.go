// Package filex contains filesystem helpers for the CLI.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (relative paths resolve against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ReplaceExt strips the last extension of name and appends ext (which should
// include the leading dot). Path separators in name are replaced so the
// result is always a plain file name.
func ReplaceExt(name, ext string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if e := filepath.Ext(name); e != "" && e != name {
		name = strings.TrimSuffix(name, e)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "model"
	}
	return name + ext
}
