// SPDX-License-Identifier: MPL-2.0

// recipekit fetches, builds, installs and smoke-tests package recipes.
package main

import "github.com/recipekit/recipekit/cmd/recipekit"

var (
	version = "dev"
	date    = "unknown"
)

func main() {
	cmd.Version = version
	cmd.BuildDate = date
	cmd.Execute()
}
