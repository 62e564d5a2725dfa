// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives one recipe through its procedures in host order:
// dependency check, source fetch, install and, optionally, the smoke test.
// Each step runs to completion before the next starts, inside a sandbox
// directory that is created fresh for every run.
package pipeline
