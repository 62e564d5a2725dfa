// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

const (
	// PhaseBuild marks a dependency needed only while building.
	PhaseBuild DependencyPhase = "build"
	// PhaseRuntime marks a dependency also needed by the installed binary.
	PhaseRuntime DependencyPhase = "runtime"
)

var (
	// ErrInvalidRecipeName is the sentinel error wrapped by InvalidRecipeNameError.
	ErrInvalidRecipeName = errors.New("invalid recipe name")
	// ErrInvalidGitURL is the sentinel error wrapped by InvalidGitURLError.
	ErrInvalidGitURL = errors.New("invalid git URL")
	// ErrInvalidTag is the sentinel error wrapped by InvalidTagError.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidRevision is the sentinel error wrapped by InvalidRevisionError.
	ErrInvalidRevision = errors.New("invalid revision")
	// ErrInvalidBranch is the sentinel error wrapped by InvalidBranchError.
	ErrInvalidBranch = errors.New("invalid branch")
	// ErrInvalidDependencyPhase is the sentinel error wrapped by InvalidDependencyPhaseError.
	ErrInvalidDependencyPhase = errors.New("invalid dependency phase")
	// ErrInvalidSymbolName is the sentinel error wrapped by InvalidSymbolNameError.
	ErrInvalidSymbolName = errors.New("invalid linker symbol")
	// ErrInvalidArtifactPath is the sentinel error wrapped by InvalidArtifactPathError.
	ErrInvalidArtifactPath = errors.New("invalid artifact path")
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version")

	recipeNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+._-]*$`)
	revisionPattern   = regexp.MustCompile(`^[0-9a-f]{40}$`)
	// import path, a dot, then a Go identifier: main.version, example.com/x/build.Date
	symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_./-]+\.[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	// RecipeName identifies a recipe (e.g. "otc-auth").
	RecipeName string

	// InvalidRecipeNameError is returned when a RecipeName is not a lowercase
	// formula-style identifier.
	InvalidRecipeNameError struct {
		Value RecipeName
	}

	// GitURL is a repository location: https://, ssh://, git@host:path,
	// file:// or an absolute local path.
	GitURL string

	// InvalidGitURLError is returned when a GitURL has no recognised form.
	InvalidGitURLError struct {
		Value GitURL
	}

	// Tag is an immutable-by-convention source control tag (e.g. "v2.0.0").
	Tag string

	// InvalidTagError is returned when a Tag is empty or contains whitespace.
	InvalidTagError struct {
		Value Tag
	}

	// Revision is a 40-character lowercase hexadecimal commit SHA.
	// The zero value means "not pinned".
	Revision string

	// InvalidRevisionError is returned when a non-empty Revision is not a
	// 40-character lowercase hex SHA.
	InvalidRevisionError struct {
		Value Revision
	}

	// Branch is a mutable branch name used for head builds.
	Branch string

	// InvalidBranchError is returned when a Branch is empty or contains whitespace.
	InvalidBranchError struct {
		Value Branch
	}

	// DependencyPhase says when a dependency must be present.
	DependencyPhase string

	// InvalidDependencyPhaseError is returned for phases other than build and runtime.
	InvalidDependencyPhaseError struct {
		Value DependencyPhase
	}

	// SymbolName is a fully qualified Go string variable that the linker
	// overwrites with -X (e.g. "main.version").
	SymbolName string

	// InvalidSymbolNameError is returned when a SymbolName is not of the
	// form importpath.name.
	InvalidSymbolNameError struct {
		Value SymbolName
	}

	// ArtifactPath is the slash-separated path of the built binary relative
	// to the source tree. It may not escape the tree.
	ArtifactPath string

	// InvalidArtifactPathError is returned when an ArtifactPath is empty,
	// absolute, or escapes the source tree.
	InvalidArtifactPathError struct {
		Value ArtifactPath
	}

	// Version is the version string injected into the binary and expected
	// back from its version command.
	Version string

	// InvalidVersionError is returned when a Version is empty or contains whitespace.
	InvalidVersionError struct {
		Value Version
	}
)

// Validate returns nil if the RecipeName is a lowercase formula-style identifier.
func (n RecipeName) Validate() error {
	if !recipeNamePattern.MatchString(string(n)) {
		return &InvalidRecipeNameError{Value: n}
	}
	return nil
}

// String returns the string representation of the RecipeName.
func (n RecipeName) String() string { return string(n) }

// Error implements the error interface.
func (e *InvalidRecipeNameError) Error() string {
	return fmt.Sprintf("invalid recipe name %q (lowercase letters, digits, '+', '.', '_' and '-' only)", e.Value)
}

// Unwrap returns ErrInvalidRecipeName for errors.Is() compatibility.
func (e *InvalidRecipeNameError) Unwrap() error { return ErrInvalidRecipeName }

// Validate returns nil if the GitURL has a recognised form.
func (u GitURL) Validate() error {
	s := string(u)
	switch {
	case strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "http://"),
		strings.HasPrefix(s, "ssh://"), strings.HasPrefix(s, "git@"),
		strings.HasPrefix(s, "file://"), strings.HasPrefix(s, "/"):
		if strings.ContainsAny(s, " \t\r\n") {
			return &InvalidGitURLError{Value: u}
		}
		return nil
	default:
		return &InvalidGitURLError{Value: u}
	}
}

// IsLocal reports whether the URL points at the local filesystem.
func (u GitURL) IsLocal() bool {
	s := string(u)
	return strings.HasPrefix(s, "file://") || strings.HasPrefix(s, "/")
}

// String returns the string representation of the GitURL.
func (u GitURL) String() string { return string(u) }

// Error implements the error interface.
func (e *InvalidGitURLError) Error() string {
	return fmt.Sprintf("invalid git URL %q (must start with https://, ssh://, git@, file:// or /)", e.Value)
}

// Unwrap returns ErrInvalidGitURL for errors.Is() compatibility.
func (e *InvalidGitURLError) Unwrap() error { return ErrInvalidGitURL }

// Validate returns nil if the Tag is non-empty and free of whitespace.
func (t Tag) Validate() error {
	if t == "" || strings.ContainsAny(string(t), " \t\r\n") {
		return &InvalidTagError{Value: t}
	}
	return nil
}

// String returns the string representation of the Tag.
func (t Tag) String() string { return string(t) }

// Error implements the error interface.
func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid tag %q (must be non-empty without whitespace)", e.Value)
}

// Unwrap returns ErrInvalidTag for errors.Is() compatibility.
func (e *InvalidTagError) Unwrap() error { return ErrInvalidTag }

// Validate returns nil if the Revision is unset or a 40-character lowercase hex SHA.
func (r Revision) Validate() error {
	if r != "" && !revisionPattern.MatchString(string(r)) {
		return &InvalidRevisionError{Value: r}
	}
	return nil
}

// IsPinned reports whether a revision is set.
func (r Revision) IsPinned() bool { return r != "" }

// Short returns the first seven characters of the revision.
func (r Revision) Short() string {
	if len(r) > 7 {
		return string(r[:7])
	}
	return string(r)
}

// String returns the string representation of the Revision.
func (r Revision) String() string { return string(r) }

// Error implements the error interface.
func (e *InvalidRevisionError) Error() string {
	return fmt.Sprintf("invalid revision %q (must be a 40-character lowercase hex SHA)", e.Value)
}

// Unwrap returns ErrInvalidRevision for errors.Is() compatibility.
func (e *InvalidRevisionError) Unwrap() error { return ErrInvalidRevision }

// Validate returns nil if the Branch is non-empty and free of whitespace.
func (b Branch) Validate() error {
	if b == "" || strings.ContainsAny(string(b), " \t\r\n") {
		return &InvalidBranchError{Value: b}
	}
	return nil
}

// String returns the string representation of the Branch.
func (b Branch) String() string { return string(b) }

// Error implements the error interface.
func (e *InvalidBranchError) Error() string {
	return fmt.Sprintf("invalid branch %q (must be non-empty without whitespace)", e.Value)
}

// Unwrap returns ErrInvalidBranch for errors.Is() compatibility.
func (e *InvalidBranchError) Unwrap() error { return ErrInvalidBranch }

// Validate returns nil if the phase is build or runtime.
func (p DependencyPhase) Validate() error {
	switch p {
	case PhaseBuild, PhaseRuntime:
		return nil
	default:
		return &InvalidDependencyPhaseError{Value: p}
	}
}

// String returns the string representation of the DependencyPhase.
func (p DependencyPhase) String() string { return string(p) }

// Error implements the error interface.
func (e *InvalidDependencyPhaseError) Error() string {
	return fmt.Sprintf("invalid dependency phase %q (expected %q or %q)", e.Value, PhaseBuild, PhaseRuntime)
}

// Unwrap returns ErrInvalidDependencyPhase for errors.Is() compatibility.
func (e *InvalidDependencyPhaseError) Unwrap() error { return ErrInvalidDependencyPhase }

// Validate returns nil if the SymbolName looks like importpath.name.
func (s SymbolName) Validate() error {
	if !symbolPattern.MatchString(string(s)) {
		return &InvalidSymbolNameError{Value: s}
	}
	return nil
}

// String returns the string representation of the SymbolName.
func (s SymbolName) String() string { return string(s) }

// Error implements the error interface.
func (e *InvalidSymbolNameError) Error() string {
	return fmt.Sprintf("invalid linker symbol %q (expected importpath.name, e.g. main.version)", e.Value)
}

// Unwrap returns ErrInvalidSymbolName for errors.Is() compatibility.
func (e *InvalidSymbolNameError) Unwrap() error { return ErrInvalidSymbolName }

// Validate returns nil if the ArtifactPath is relative and stays inside the tree.
func (a ArtifactPath) Validate() error {
	s := string(a)
	if strings.TrimSpace(s) == "" || path.IsAbs(s) || strings.Contains(s, `\`) {
		return &InvalidArtifactPathError{Value: a}
	}
	clean := path.Clean(s)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return &InvalidArtifactPathError{Value: a}
	}
	return nil
}

// Base returns the file name of the artifact, which is also the name it is
// installed under.
func (a ArtifactPath) Base() string { return path.Base(string(a)) }

// String returns the string representation of the ArtifactPath.
func (a ArtifactPath) String() string { return string(a) }

// Error implements the error interface.
func (e *InvalidArtifactPathError) Error() string {
	return fmt.Sprintf("invalid artifact path %q (must be relative to the source tree)", e.Value)
}

// Unwrap returns ErrInvalidArtifactPath for errors.Is() compatibility.
func (e *InvalidArtifactPathError) Unwrap() error { return ErrInvalidArtifactPath }

// Validate returns nil if the Version is non-empty and free of whitespace.
func (v Version) Validate() error {
	if v == "" || strings.ContainsAny(string(v), " \t\r\n'\"") {
		return &InvalidVersionError{Value: v}
	}
	return nil
}

// String returns the string representation of the Version.
func (v Version) String() string { return string(v) }

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q (must be non-empty without whitespace or quotes)", e.Value)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }
