// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/valyala/fasttemplate"
	"golang.org/x/mod/semver"

	"github.com/recipekit/recipekit/pkg/cueutil"
	"github.com/recipekit/recipekit/pkg/types"
)

const (
	// FileExt is the extension of recipe files.
	FileExt = ".cue"

	// DefaultExpectPrefix is the smoke-test expectation when a recipe does
	// not set test.expect_prefix.
	DefaultExpectPrefix = "{{product}} {{version}}"
)

//go:embed recipe_schema.cue
var schema []byte

// ErrInvalidRecipe is the sentinel error wrapped by InvalidRecipeError.
var ErrInvalidRecipe = errors.New("invalid recipe")

type (
	// Recipe is the immutable recipe descriptor.
	Recipe struct {
		name         RecipeName
		productName  string
		description  types.DescriptionText
		homepage     string
		license      string
		source       SourceRef
		head         *HeadRef
		dependencies []Dependency
		build        BuildSpec
		test         TestSpec
		path         string
	}

	// SourceRef is the pinned source reference: a tag and, optionally, the
	// exact commit the tag must resolve to.
	SourceRef struct {
		URL      GitURL
		Tag      Tag
		Revision Revision
	}

	// HeadRef is the floating reference used for "latest" builds.
	HeadRef struct {
		URL    GitURL
		Branch Branch
	}

	// Dependency is one declared external tool or library.
	Dependency struct {
		Name  string
		Phase DependencyPhase
		// ProvidedBy names the operating system that ships the dependency
		// itself (GOOS spelling). Empty when no OS provides it.
		ProvidedBy string
	}

	// BuildSpec parameterises the toolchain invocation.
	BuildSpec struct {
		VersionSymbol SymbolName
		DateSymbol    SymbolName
		Artifact      ArtifactPath
		// Package is an optional build target; empty builds the package in
		// the source root.
		Package string
	}

	// TestSpec parameterises the smoke test.
	TestSpec struct {
		Args []string
		// ExpectPrefix is a template with {{product}} and {{version}}
		// placeholders. Empty means DefaultExpectPrefix.
		ExpectPrefix string
	}

	// InvalidRecipeError collects field-level validation failures that the
	// CUE schema cannot express.
	InvalidRecipeError struct {
		Name        RecipeName
		FieldErrors []error
	}

	recipeFile struct {
		Name         string           `json:"name"`
		ProductName  string           `json:"product_name"`
		Description  string           `json:"description"`
		Homepage     string           `json:"homepage"`
		License      string           `json:"license"`
		Source       sourceFile       `json:"source"`
		Head         *headFile        `json:"head,omitempty"`
		Dependencies []dependencyFile `json:"dependencies"`
		Build        buildFile        `json:"build"`
		Test         testFile         `json:"test"`
	}

	sourceFile struct {
		URL      string `json:"url"`
		Tag      string `json:"tag"`
		Revision string `json:"revision,omitempty"`
	}

	headFile struct {
		URL    string `json:"url"`
		Branch string `json:"branch"`
	}

	dependencyFile struct {
		Name       string `json:"name"`
		Phase      string `json:"phase"`
		ProvidedBy string `json:"provided_by,omitempty"`
	}

	buildFile struct {
		VersionSymbol string `json:"version_symbol"`
		DateSymbol    string `json:"date_symbol"`
		Artifact      string `json:"artifact"`
		Package       string `json:"package,omitempty"`
	}

	testFile struct {
		Args         []string `json:"args"`
		ExpectPrefix string   `json:"expect_prefix"`
	}
)

// Error implements the error interface.
func (e *InvalidRecipeError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid recipe %q: %s", e.Name, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidRecipe followed by the field errors, so errors.Is
// matches both the recipe sentinel and the individual value sentinels.
func (e *InvalidRecipeError) Unwrap() []error {
	return append([]error{ErrInvalidRecipe}, e.FieldErrors...)
}

// Parse decodes and validates a CUE recipe document.
func Parse(data []byte, filename string) (*Recipe, error) {
	res, err := cueutil.Decode[recipeFile](schema, data, "#Recipe", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}

	r := fromFile(res.Value)
	r.path = filename
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads and parses the recipe file at path.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Parse(data, abs)
}

// Resolve loads ref as a recipe file when it names one, and as a built-in
// recipe otherwise.
func Resolve(ref string) (*Recipe, error) {
	if strings.HasSuffix(ref, FileExt) || strings.ContainsRune(ref, filepath.Separator) {
		return Load(ref)
	}
	return Builtin(RecipeName(ref))
}

func fromFile(f *recipeFile) *Recipe {
	r := &Recipe{
		name:        RecipeName(f.Name),
		productName: f.ProductName,
		description: types.DescriptionText(f.Description),
		homepage:    f.Homepage,
		license:     f.License,
		source: SourceRef{
			URL:      GitURL(f.Source.URL),
			Tag:      Tag(f.Source.Tag),
			Revision: Revision(f.Source.Revision),
		},
		build: BuildSpec{
			VersionSymbol: SymbolName(f.Build.VersionSymbol),
			DateSymbol:    SymbolName(f.Build.DateSymbol),
			Artifact:      ArtifactPath(f.Build.Artifact),
			Package:       f.Build.Package,
		},
		test: TestSpec{Args: slices.Clone(f.Test.Args), ExpectPrefix: f.Test.ExpectPrefix},
	}
	if f.Head != nil {
		r.head = &HeadRef{URL: GitURL(f.Head.URL), Branch: Branch(f.Head.Branch)}
	}
	for _, d := range f.Dependencies {
		r.dependencies = append(r.dependencies, Dependency{
			Name:       d.Name,
			Phase:      DependencyPhase(d.Phase),
			ProvidedBy: d.ProvidedBy,
		})
	}
	return r
}

// Validate checks the constraints the schema leaves to Go: value types and
// dependency name uniqueness.
func (r *Recipe) Validate() error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	check(r.name.Validate())
	check(r.description.Validate())
	check(r.source.URL.Validate())
	check(r.source.Tag.Validate())
	check(r.source.Revision.Validate())
	if r.head != nil {
		check(r.head.URL.Validate())
		check(r.head.Branch.Validate())
	}
	check(r.build.VersionSymbol.Validate())
	check(r.build.DateSymbol.Validate())
	check(r.build.Artifact.Validate())
	check(r.Version().Validate())
	if _, err := renderPrefix(r.test.ExpectPrefix, r.productName, r.Version()); err != nil {
		check(fmt.Errorf("test.expect_prefix: %w", err))
	}

	seen := make(map[string]bool, len(r.dependencies))
	for i, d := range r.dependencies {
		if err := d.Phase.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("dependencies[%d]: %w", i, err))
		}
		if seen[d.Name] {
			errs = append(errs, fmt.Errorf("dependencies[%d]: duplicate dependency %q", i, d.Name))
		}
		seen[d.Name] = true
	}

	if len(errs) > 0 {
		return &InvalidRecipeError{Name: r.name, FieldErrors: errs}
	}
	return nil
}

// Name returns the recipe identifier.
func (r *Recipe) Name() RecipeName { return r.name }

// ProductName returns the name the installed binary prints before its version.
func (r *Recipe) ProductName() string { return r.productName }

// Description returns the one-line description.
func (r *Recipe) Description() types.DescriptionText { return r.description }

// Homepage returns the project homepage URL.
func (r *Recipe) Homepage() string { return r.homepage }

// License returns the license identifier.
func (r *Recipe) License() string { return r.license }

// Source returns the pinned source reference.
func (r *Recipe) Source() SourceRef { return r.source }

// Head returns the floating head reference, if the recipe declares one.
func (r *Recipe) Head() (HeadRef, bool) {
	if r.head == nil {
		return HeadRef{}, false
	}
	return *r.head, true
}

// Dependencies returns a copy of the declared dependencies in declaration order.
func (r *Recipe) Dependencies() []Dependency { return slices.Clone(r.dependencies) }

// Build returns the build parameters.
func (r *Recipe) Build() BuildSpec { return r.build }

// Test returns a copy of the smoke-test parameters.
func (r *Recipe) Test() TestSpec {
	return TestSpec{Args: slices.Clone(r.test.Args), ExpectPrefix: r.test.ExpectPrefix}
}

// Path returns the file the recipe was loaded from, or "builtin:<name>".
func (r *Recipe) Path() string { return r.path }

// Version returns the version implied by the pinned tag: semver tags lose
// their leading "v" ("v2.0.0" -> "2.0.0"), anything else is used verbatim.
func (r *Recipe) Version() Version {
	return VersionFromTag(r.source.Tag)
}

// HeadVersion returns the version used for a head build of commit rev.
func (r *Recipe) HeadVersion(rev Revision) Version {
	return Version("HEAD-" + rev.Short())
}

// ExpectedPrefix returns the text the installed binary's version output must
// start with: the test.expect_prefix template rendered for v.
func (r *Recipe) ExpectedPrefix(v Version) string {
	prefix, err := renderPrefix(r.test.ExpectPrefix, r.productName, v)
	if err != nil {
		// Validate rejects bad templates, so only hand-built recipes get here.
		return r.productName + " " + string(v)
	}
	return prefix
}

func renderPrefix(tmpl, product string, v Version) (string, error) {
	if tmpl == "" {
		tmpl = DefaultExpectPrefix
	}
	return fasttemplate.ExecuteFuncStringWithErr(tmpl, "{{", "}}", func(w io.Writer, tag string) (int, error) {
		switch strings.TrimSpace(tag) {
		case "product":
			return io.WriteString(w, product)
		case "version":
			return io.WriteString(w, string(v))
		default:
			return 0, fmt.Errorf("unknown placeholder {{%s}}", tag)
		}
	})
}

// VersionFromTag derives a version string from a tag.
func VersionFromTag(t Tag) Version {
	s := string(t)
	if semver.IsValid(s) {
		return Version(strings.TrimPrefix(s, "v"))
	}
	return Version(s)
}
