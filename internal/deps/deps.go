// SPDX-License-Identifier: MPL-2.0

package deps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/recipekit/recipekit/pkg/recipe"
)

// State is the outcome of checking one dependency.
type State string

const (
	// StateFound means the dependency's command resolved on PATH.
	StateFound State = "found"
	// StateMissing means the dependency's command did not resolve.
	StateMissing State = "missing"
	// StateProvided means the operating system ships the dependency.
	StateProvided State = "provided"
)

// ErrMissingDependency is the sentinel error wrapped by MissingError.
var ErrMissingDependency = errors.New("missing dependency")

// probes maps package names to a command the package installs, for packages
// that do not ship a command of the same name.
var probes = map[string]string{
	"coreutils": "ls",
}

type (
	// LookPathFunc resolves a command name; exec.LookPath has this shape.
	LookPathFunc func(file string) (string, error)

	// Status is the check result for one dependency.
	Status struct {
		Dependency recipe.Dependency
		// Command is the executable that was probed.
		Command string
		State   State
		// Path is the resolved command path when State is StateFound.
		Path string
	}

	// Report holds the statuses of every dependency checked, in declaration
	// order.
	Report struct {
		Phase    recipe.DependencyPhase
		GOOS     string
		Statuses []Status
	}

	// MissingError lists dependencies that did not resolve.
	MissingError struct {
		Names []string
	}
)

// Check probes every dependency of r that matters for phase on goos. The
// build phase includes runtime dependencies; the runtime phase does not
// include build-only ones. Dependencies provided by goos are not probed.
func Check(r *recipe.Recipe, phase recipe.DependencyPhase, goos string, lookPath LookPathFunc) Report {
	report := Report{Phase: phase, GOOS: goos}
	for _, dep := range r.Dependencies() {
		if phase == recipe.PhaseRuntime && dep.Phase != recipe.PhaseRuntime {
			continue
		}

		cmd := CommandFor(dep.Name)
		st := Status{Dependency: dep, Command: cmd}
		switch {
		case dep.ProvidedBy != "" && dep.ProvidedBy == goos:
			st.State = StateProvided
		default:
			if path, err := lookPath(cmd); err == nil {
				st.State = StateFound
				st.Path = path
			} else {
				st.State = StateMissing
			}
		}
		report.Statuses = append(report.Statuses, st)
	}
	return report
}

// CommandFor returns the executable probed for a dependency name.
func CommandFor(name string) string {
	if cmd, ok := probes[name]; ok {
		return cmd
	}
	return name
}

// Missing returns the statuses in StateMissing.
func (r Report) Missing() []Status {
	var missing []Status
	for _, st := range r.Statuses {
		if st.State == StateMissing {
			missing = append(missing, st)
		}
	}
	return missing
}

// Err returns a *MissingError when any dependency is missing.
func (r Report) Err() error {
	missing := r.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, st := range missing {
		names[i] = st.Dependency.Name
	}
	return &MissingError{Names: names}
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("missing dependencies: %s", strings.Join(e.Names, ", "))
}

// Unwrap returns ErrMissingDependency for errors.Is() compatibility.
func (e *MissingError) Unwrap() error { return ErrMissingDependency }
