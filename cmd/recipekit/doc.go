// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the recipekit command-line interface.
//
// The Cobra command tree is built around an App, which carries the
// configuration provider and the services that fetch, build, install and
// test recipes. Commands translate pipeline failures into issue catalog
// entries and process exit codes.
package cmd
