package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// moduleImportPath returns the import path of dir from the closest enclosing
// go.mod, or "" when dir is not inside a module.
func moduleImportPath(dir string) (string, error) {
	for d := dir; ; {
		goMod := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(goMod)
		switch {
		case err == nil:
			f, err := modfile.Parse(goMod, data, nil)
			if err != nil {
				return "", fmt.Errorf("parse %s: %w", goMod, err)
			}
			if f.Module == nil {
				return "", fmt.Errorf("%s: no module directive", goMod)
			}

			rel, err := filepath.Rel(d, dir)
			if err != nil {
				return "", err
			}
			return path.Join(f.Module.Mod.Path, filepath.ToSlash(rel)), nil

		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("read %s: %w", goMod, err)
		}

		parent := filepath.Dir(d)
		if parent == d {
			return "", nil
		}
		d = parent
	}
}
