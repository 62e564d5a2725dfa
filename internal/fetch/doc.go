// SPDX-License-Identifier: MPL-2.0

// Package fetch checks out recipe sources with go-git.
//
// A stable fetch clones the recipe's tag and verifies that it resolves to the
// pinned revision; a mismatch deletes the checkout and fails with FetchError
// before any build step can see it. A head fetch clones the recipe's mutable
// branch and reports whatever commit it found. Fetches are never retried.
package fetch
