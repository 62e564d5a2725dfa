// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/recipekit/recipekit/pkg/recipe"
)

// ErrNotInstalled is returned by ReadReceipt when a recipe has no receipt in
// the prefix.
var ErrNotInstalled = errors.New("recipe is not installed")

// Receipt records what an install put into a prefix.
type Receipt struct {
	Recipe      string    `toml:"recipe"`
	Version     string    `toml:"version"`
	Revision    string    `toml:"revision,omitempty"`
	Head        bool      `toml:"head"`
	BuildDate   string    `toml:"build_date"`
	InstalledAt time.Time `toml:"installed_at"`
	// Files are paths relative to the prefix root.
	Files []string `toml:"files"`
}

// ReadReceipt loads the receipt for name from the prefix.
func ReadReceipt(p Prefix, name recipe.RecipeName) (*Receipt, error) {
	path := p.ReceiptPath(name)
	data, err := os.ReadFile(string(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s in %s: %w", name, p.Root(), ErrNotInstalled)
	}
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}

	var r Receipt
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse receipt %s: %w", path, err)
	}
	return &r, nil
}

func writeReceipt(p Prefix, name recipe.RecipeName, r *Receipt) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	path := p.ReceiptPath(name)
	if err := os.MkdirAll(string(path.Dir()), 0o755); err != nil {
		return fmt.Errorf("create receipt directory: %w", err)
	}
	return atomicWrite(string(path), bytes.NewReader(data), 0o644)
}
