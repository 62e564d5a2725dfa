// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

const (
	lockFileName    = ".recipekit.lock"
	receiptFileName = "INSTALL_RECEIPT.toml"
)

// ErrInvalidPrefix is the sentinel error wrapped by InvalidPrefixError.
var ErrInvalidPrefix = errors.New("invalid installation prefix")

type (
	// Prefix is the root of an installation tree.
	Prefix struct {
		root types.FilesystemPath
	}

	// InvalidPrefixError is returned when a prefix path is empty or cannot
	// be made absolute.
	InvalidPrefixError struct {
		Value types.FilesystemPath
		Err   error
	}
)

// NewPrefix returns a Prefix rooted at the absolute form of root.
func NewPrefix(root types.FilesystemPath) (Prefix, error) {
	if err := root.Validate(); err != nil {
		return Prefix{}, &InvalidPrefixError{Value: root, Err: err}
	}
	abs, err := filepath.Abs(string(root))
	if err != nil {
		return Prefix{}, &InvalidPrefixError{Value: root, Err: err}
	}
	return Prefix{root: types.FilesystemPath(abs)}, nil
}

// Root returns the prefix directory.
func (p Prefix) Root() types.FilesystemPath { return p.root }

// BinDir returns <root>/bin.
func (p Prefix) BinDir() types.FilesystemPath { return p.root.Join("bin") }

// BinPath returns the install path of an artifact.
func (p Prefix) BinPath(artifact recipe.ArtifactPath) types.FilesystemPath {
	return p.BinDir().Join(artifact.Base())
}

// ReceiptPath returns the receipt location for a recipe.
func (p Prefix) ReceiptPath(name recipe.RecipeName) types.FilesystemPath {
	return p.root.Join("var", "recipekit", string(name), receiptFileName)
}

func (p Prefix) lockPath() types.FilesystemPath { return p.root.Join(lockFileName) }

// Error implements the error interface.
func (e *InvalidPrefixError) Error() string {
	return fmt.Sprintf("invalid installation prefix %q: %v", e.Value, e.Err)
}

// Unwrap returns ErrInvalidPrefix and the cause.
func (e *InvalidPrefixError) Unwrap() []error { return []error{ErrInvalidPrefix, e.Err} }
