// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
)

//go:embed recipes/*.cue
var builtinFS embed.FS

// ErrRecipeNotFound is the sentinel error wrapped by RecipeNotFoundError.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeNotFoundError is returned when no built-in recipe has the requested name.
type RecipeNotFoundError struct {
	Name      RecipeName
	Available []RecipeName
}

var builtins = sync.OnceValues(loadBuiltins)

// Error implements the error interface.
func (e *RecipeNotFoundError) Error() string {
	names := make([]string, len(e.Available))
	for i, n := range e.Available {
		names[i] = string(n)
	}
	return fmt.Sprintf("no built-in recipe named %q (available: %s)", e.Name, strings.Join(names, ", "))
}

// Unwrap returns ErrRecipeNotFound for errors.Is() compatibility.
func (e *RecipeNotFoundError) Unwrap() error { return ErrRecipeNotFound }

// Builtin returns the embedded recipe with the given name.
func Builtin(name RecipeName) (*Recipe, error) {
	all, err := builtins()
	if err != nil {
		return nil, err
	}
	r, ok := all[name]
	if !ok {
		return nil, &RecipeNotFoundError{Name: name, Available: slices.Sorted(maps.Keys(all))}
	}
	return r, nil
}

// Builtins returns every embedded recipe sorted by name.
func Builtins() ([]*Recipe, error) {
	all, err := builtins()
	if err != nil {
		return nil, err
	}
	out := make([]*Recipe, 0, len(all))
	for _, name := range slices.Sorted(maps.Keys(all)) {
		out = append(out, all[name])
	}
	return out, nil
}

func loadBuiltins() (map[RecipeName]*Recipe, error) {
	entries, err := fs.Glob(builtinFS, "recipes/*"+FileExt)
	if err != nil {
		return nil, err
	}

	out := make(map[RecipeName]*Recipe, len(entries))
	for _, entry := range entries {
		data, err := builtinFS.ReadFile(entry)
		if err != nil {
			return nil, fmt.Errorf("internal error: read built-in recipe %s: %w", entry, err)
		}
		r, err := Parse(data, entry)
		if err != nil {
			return nil, fmt.Errorf("internal error: built-in recipe %s: %w", entry, err)
		}
		if want := strings.TrimSuffix(path.Base(entry), FileExt); string(r.name) != want {
			return nil, fmt.Errorf("internal error: built-in recipe %s declares name %q", entry, r.name)
		}
		r.path = "builtin:" + string(r.name)
		out[r.name] = r
	}
	return out, nil
}
