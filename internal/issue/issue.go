// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	RecipeNotFoundId Id = iota + 1
	RecipeParseErrorId
	FetchFailedId
	RevisionMismatchId
	ToolchainNotFoundId
	BuildFailedId
	SmokeTestFailedId
	DependenciesMissingId
	ConfigLoadFailedId
	PermissionDeniedId
)

type (
	MarkdownMsg string

	HttpLink string

	// Issue is one catalog entry.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Markdown returns the message with a "See also" list of links appended.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			b.WriteString("- <")
			b.WriteString(string(link))
			b.WriteString(">\n")
		}
	}
	return b.String()
}

// Render renders the issue for a terminal using a glamour style name or
// path such as "dark", "light" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	recipeNotFoundIssue = &Issue{
		id: RecipeNotFoundId,
		mdMsg: `
# Recipe not found!

The recipe is neither a built-in nor a readable ` + "`.cue`" + ` file.

## Things you can try:
- List the built-in recipes:
~~~
$ recipekit list
~~~
- Pass a path to a recipe file instead of a name:
~~~
$ recipekit install ./recipes/otc-auth.cue
~~~`,
	}

	recipeParseErrorIssue = &Issue{
		id: RecipeParseErrorId,
		mdMsg: `
# Recipe is invalid!

The recipe file did not match the recipe schema.

## Common causes:
- A misspelled field: recipes are closed, unknown fields are rejected
- A revision that is not a 40-character lowercase commit SHA
- An artifact path that is absolute or climbs out of the source tree
- A linker symbol that is not of the form ` + "`importpath.name`",
	}

	fetchFailedIssue = &Issue{
		id: FetchFailedId,
		mdMsg: `
# Could not fetch the source!

Cloning the recipe's repository failed. Fetches are never retried.

## Things you can try:
- Check that the repository URL and tag exist
- For private repositories, set ` + "`GITHUB_TOKEN`" + `, ` + "`GITLAB_TOKEN`" + ` or ` + "`GIT_TOKEN`" + `
- For SSH URLs, make sure a key exists in ` + "`~/.ssh`",
	}

	revisionMismatchIssue = &Issue{
		id: RevisionMismatchId,
		mdMsg: `
# The tag moved!

The recipe pins a revision for its tag, and the tag now resolves to a
different commit. Nothing was built.

## Things you can try:
- Compare the remote with the pin:
~~~
$ recipekit verify otc-auth
~~~
- If the upstream re-tag is legitimate, update ` + "`source.revision`" + ` in the recipe`,
	}

	toolchainNotFoundIssue = &Issue{
		id: ToolchainNotFoundId,
		mdMsg: `
# Go toolchain not found!

The build step needs the go command and could not find it.

## Things you can try:
- Install Go and make sure ` + "`go`" + ` is on your PATH
- Point recipekit at a specific binary in your config:
~~~cue
toolchain: go_binary: "/usr/local/go/bin/go"
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Build failed!

The toolchain exited with an error. Its output is shown above, unchanged.

## Things you can try:
- Re-run with ` + "`--keep-sandbox`" + ` and inspect the source tree
- Check the toolchain environment in ` + "`toolchain.env`" + `
- Raise ` + "`timeouts.build`" + ` if the build was cut off`,
	}

	smokeTestFailedIssue = &Issue{
		id: SmokeTestFailedId,
		mdMsg: `
# Smoke test failed!

The installed binary did not answer ` + "`version`" + ` with the expected
product name and version.

## Common causes:
- The recipe's ` + "`build.version_symbol`" + ` does not match the variable in the program
- The binary printed warnings before its version line
- The binary crashed or hung; see ` + "`timeouts.test`",
	}

	dependenciesMissingIssue = &Issue{
		id: DependenciesMissingId,
		mdMsg: `
# Dependencies missing!

Some dependencies declared by the recipe are not on PATH. recipekit does
not install them.

## Things you can try:
- Install them with your system package manager
- Inspect what was found:
~~~
$ recipekit deps otc-auth
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Print the effective configuration:
~~~
$ recipekit config show
~~~
- Write a fresh default file:
~~~
$ recipekit config init
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

recipekit could not write to the installation prefix or the cache.

## Things you can try:
- Install into a prefix you own:
~~~
$ recipekit install otc-auth --prefix ~/.local
~~~
- Check ` + "`prefix`" + ` and ` + "`cache_dir`" + ` in your config`,
	}

	issues = map[Id]*Issue{
		recipeNotFoundIssue.Id():      recipeNotFoundIssue,
		recipeParseErrorIssue.Id():    recipeParseErrorIssue,
		fetchFailedIssue.Id():         fetchFailedIssue,
		revisionMismatchIssue.Id():    revisionMismatchIssue,
		toolchainNotFoundIssue.Id():   toolchainNotFoundIssue,
		buildFailedIssue.Id():         buildFailedIssue,
		smokeTestFailedIssue.Id():     smokeTestFailedIssue,
		dependenciesMissingIssue.Id(): dependenciesMissingIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, v := range maps.Values(issues) {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
