// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const minimalRecipe = `
name:         "hello"
product_name: "Hello"
homepage:     "https://example.com/hello"
license:      "MIT"
source: {
	url: "https://example.com/hello.git"
	tag: "v1.2.3"
}
build: artifact: "hello"
`

func TestBuiltinOTCAuth(t *testing.T) {
	t.Parallel()

	r, err := Builtin("otc-auth")
	if err != nil {
		t.Fatalf("Builtin(otc-auth) error = %v", err)
	}

	if r.Name() != "otc-auth" {
		t.Errorf("Name() = %q", r.Name())
	}
	if r.ProductName() != "OTC-Auth" {
		t.Errorf("ProductName() = %q", r.ProductName())
	}
	if r.License() != "MIT" {
		t.Errorf("License() = %q", r.License())
	}
	if r.Homepage() != "https://github.com/iits-consulting/otc-auth" {
		t.Errorf("Homepage() = %q", r.Homepage())
	}

	src := r.Source()
	if src.Tag != "v2.0.0" {
		t.Errorf("Source().Tag = %q, want v2.0.0", src.Tag)
	}
	if src.Revision != "86b76b04813ce94cfaacd95f8653f2fe13851a60" {
		t.Errorf("Source().Revision = %q", src.Revision)
	}
	if r.Version() != "2.0.0" {
		t.Errorf("Version() = %q, want 2.0.0", r.Version())
	}
	if got := r.ExpectedPrefix(r.Version()); got != "OTC-Auth 2.0.0" {
		t.Errorf("ExpectedPrefix() = %q, want %q", got, "OTC-Auth 2.0.0")
	}

	head, ok := r.Head()
	if !ok || head.Branch != "main" {
		t.Errorf("Head() = %+v, %v; want branch main", head, ok)
	}

	var names []string
	for _, d := range r.Dependencies() {
		names = append(names, d.Name)
		if d.Phase != PhaseBuild {
			t.Errorf("dependency %s phase = %q, want build", d.Name, d.Phase)
		}
	}
	if want := []string{"bash", "coreutils", "go", "rsync"}; !slices.Equal(names, want) {
		t.Errorf("dependency order = %v, want %v", names, want)
	}

	b := r.Build()
	if b.VersionSymbol != "main.version" || b.DateSymbol != "main.date" || b.Artifact != "otc-auth" {
		t.Errorf("Build() = %+v", b)
	}
	if args := r.Test().Args; !slices.Equal(args, []string{"version"}) {
		t.Errorf("Test().Args = %v, want [version]", args)
	}
	if r.Path() != "builtin:otc-auth" {
		t.Errorf("Path() = %q", r.Path())
	}
}

func TestBuiltinNotFound(t *testing.T) {
	t.Parallel()

	_, err := Builtin("does-not-exist")
	if !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("Builtin() error = %v, want ErrRecipeNotFound", err)
	}
	var nf *RecipeNotFoundError
	if !errors.As(err, &nf) || !slices.Contains(nf.Available, "otc-auth") {
		t.Errorf("available list should include otc-auth: %v", err)
	}
}

func TestBuiltins(t *testing.T) {
	t.Parallel()

	all, err := Builtins()
	if err != nil {
		t.Fatalf("Builtins() error = %v", err)
	}
	if len(all) == 0 {
		t.Fatal("Builtins() returned no recipes")
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name() >= all[i].Name() {
			t.Errorf("Builtins() not sorted: %q before %q", all[i-1].Name(), all[i].Name())
		}
	}
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	r, err := Parse([]byte(minimalRecipe), "hello.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if r.Build().VersionSymbol != "main.version" || r.Build().DateSymbol != "main.date" {
		t.Errorf("default symbols not applied: %+v", r.Build())
	}
	if !slices.Equal(r.Test().Args, []string{"version"}) {
		t.Errorf("default test args = %v", r.Test().Args)
	}
	if r.Test().ExpectPrefix != DefaultExpectPrefix {
		t.Errorf("default expect_prefix = %q, want %q", r.Test().ExpectPrefix, DefaultExpectPrefix)
	}
	if _, ok := r.Head(); ok {
		t.Error("Head() reported a head ref for a recipe without one")
	}
	if r.Source().Revision.IsPinned() {
		t.Error("revision should be unpinned")
	}
	if len(r.Dependencies()) != 0 {
		t.Errorf("Dependencies() = %v, want none", r.Dependencies())
	}
}

func TestExpectedPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		test string
		want string
	}{
		{"default", "", "Hello 1.2.3"},
		{"version only", `test: expect_prefix: "v{{version}}"`, "v1.2.3"},
		{"spaced tags", `test: expect_prefix: "{{ product }} version {{ version }}"`, "Hello version 1.2.3"},
		{"literal", `test: expect_prefix: "hello, world"`, "hello, world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := Parse([]byte(minimalRecipe+"\n"+tt.test+"\n"), "hello.cue")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := r.ExpectedPrefix(r.Version()); got != tt.want {
				t.Errorf("ExpectedPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpectedPrefix_HandBuiltRecipe(t *testing.T) {
	t.Parallel()

	r := &Recipe{productName: "Hello", test: TestSpec{ExpectPrefix: "{{bogus}}"}}
	if got := r.ExpectedPrefix("1.0.0"); got != "Hello 1.0.0" {
		t.Errorf("ExpectedPrefix() = %q, want default rendering", got)
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(string) string
		wantSub string
		wantIs  error
	}{
		{
			name:    "short revision",
			mutate:  func(s string) string { return strings.Replace(s, `tag: "v1.2.3"`, `tag: "v1.2.3", revision: "abc123"`, 1) },
			wantSub: "revision",
		},
		{
			name:    "uppercase name",
			mutate:  func(s string) string { return strings.Replace(s, `"hello"`, `"Hello"`, 1) },
			wantSub: "name",
		},
		{
			name:    "unknown field",
			mutate:  func(s string) string { return s + "\nbottle: true\n" },
			wantSub: "bottle",
		},
		{
			name:    "bad phase",
			mutate:  func(s string) string { return s + "\ndependencies: [{name: \"go\", phase: \"test\"}]\n" },
			wantSub: "phase",
		},
		{
			name:    "escaping artifact",
			mutate:  func(s string) string { return strings.Replace(s, `artifact: "hello"`, `artifact: "../hello"`, 1) },
			wantIs:  ErrInvalidArtifactPath,
			wantSub: "artifact",
		},
		{
			name:    "bad url",
			mutate:  func(s string) string { return strings.Replace(s, `"https://example.com/hello.git"`, `"example.com/hello.git"`, 1) },
			wantIs:  ErrInvalidGitURL,
			wantSub: "git URL",
		},
		{
			name:    "duplicate dependency",
			mutate:  func(s string) string { return s + "\ndependencies: [{name: \"go\"}, {name: \"go\", phase: \"runtime\"}]\n" },
			wantIs:  ErrInvalidRecipe,
			wantSub: "duplicate",
		},
		{
			name:    "bad symbol",
			mutate:  func(s string) string { return strings.Replace(s, `build: artifact: "hello"`, `build: {artifact: "hello", version_symbol: "version"}`, 1) },
			wantIs:  ErrInvalidSymbolName,
			wantSub: "linker symbol",
		},
		{
			name:    "unknown expect placeholder",
			mutate:  func(s string) string { return s + "\ntest: expect_prefix: \"{{name}} {{version}}\"\n" },
			wantIs:  ErrInvalidRecipe,
			wantSub: "unknown placeholder {{name}}",
		},
		{
			name:    "unterminated expect placeholder",
			mutate:  func(s string) string { return s + "\ntest: expect_prefix: \"{{product} v\"\n" },
			wantIs:  ErrInvalidRecipe,
			wantSub: "expect_prefix",
		},
		{
			name:    "empty expect prefix",
			mutate:  func(s string) string { return s + "\ntest: expect_prefix: \"\"\n" },
			wantSub: "expect_prefix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.mutate(minimalRecipe)), "hello.cue")
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if tt.wantSub != "" && !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
		})
	}
}

func TestLoadAndResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hello.cue")
	if err := os.WriteFile(path, []byte(minimalRecipe), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(file) error = %v", err)
	}
	if r.Name() != "hello" || r.Path() != path {
		t.Errorf("Resolve(file) = %q from %q", r.Name(), r.Path())
	}

	r, err = Resolve("otc-auth")
	if err != nil {
		t.Fatalf("Resolve(builtin) error = %v", err)
	}
	if r.Name() != "otc-auth" {
		t.Errorf("Resolve(builtin) = %q", r.Name())
	}

	if _, err := Load(filepath.Join(dir, "missing.cue")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	r, err := Builtin("otc-auth")
	if err != nil {
		t.Fatal(err)
	}

	deps := r.Dependencies()
	deps[0].Name = "mutated"
	args := r.Test().Args
	args[0] = "mutated"

	if r.Dependencies()[0].Name == "mutated" {
		t.Error("Dependencies() exposed internal slice")
	}
	if r.Test().Args[0] == "mutated" {
		t.Error("Test() exposed internal slice")
	}
}

func TestVersionFromTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  Tag
		want Version
	}{
		{"v2.0.0", "2.0.0"},
		{"v1.4.0-rc.1", "1.4.0-rc.1"},
		{"2.0.0", "2.0.0"},
		{"release-7", "release-7"},
		{"v", "v"},
	}

	for _, tt := range tests {
		if got := VersionFromTag(tt.tag); got != tt.want {
			t.Errorf("VersionFromTag(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestHeadVersion(t *testing.T) {
	t.Parallel()

	r, err := Builtin("otc-auth")
	if err != nil {
		t.Fatal(err)
	}
	got := r.HeadVersion("86b76b04813ce94cfaacd95f8653f2fe13851a60")
	if got != "HEAD-86b76b0" {
		t.Errorf("HeadVersion() = %q, want HEAD-86b76b0", got)
	}
}
