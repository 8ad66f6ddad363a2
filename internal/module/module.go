// Package module locates the Go module a package directory belongs to.
package module

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/modfile"
)

// Module is a go.mod found on disk.
type Module struct {
	Root string // directory holding go.mod
	Path string // module path declared in go.mod, e.g. "martianoff/enumwrap"
}

// Find walks up from dir looking for go.mod. It reports false when dir is
// not inside a module.
func Find(dir string) (Module, bool, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Module{}, false, errors.Wrapf(err, "resolving %s", dir)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for d := abs; ; {
		content, err := os.ReadFile(filepath.Join(d, "go.mod"))
		if err == nil {
			path := modfile.ModulePath(content)
			if path == "" {
				return Module{}, false, errors.Newf("%s: no module directive", filepath.Join(d, "go.mod"))
			}
			return Module{Root: d, Path: path}, true, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return Module{}, false, nil
		}
		d = parent
	}
}

// ImportPath returns the import path of the package in dir, which must be
// inside the module.
func (m Module) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", dir)
	}
	rel, err := filepath.Rel(m.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf("%s is outside module %s", dir, m.Path)
	}
	if rel == "." {
		return m.Path, nil
	}
	return m.Path + "/" + filepath.ToSlash(rel), nil
}

// FindUp looks for a file called name in dir and its parents, never going
// above stop. An empty stop only checks dir itself.
func FindUp(dir, name, stop string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	if stop == "" {
		stop = abs
	}
	for d := abs; ; {
		candidate := filepath.Join(d, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(d)
		if d == stop || parent == d {
			return "", false
		}
		d = parent
	}
}
