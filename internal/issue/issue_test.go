// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestValues_OrderedAndComplete(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != int(PermissionDeniedId) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), PermissionDeniedId)
	}
	for i, v := range values {
		if want := Id(i + 1); v.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, v.Id(), want)
		}
		if strings.TrimSpace(string(v.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", v.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   Id
		want string
	}{
		{RecipeNotFoundId, "Recipe not found"},
		{RevisionMismatchId, "The tag moved"},
		{ToolchainNotFoundId, "Go toolchain not found"},
		{SmokeTestFailedId, "Smoke test failed"},
	}
	for _, tt := range tests {
		got := Get(tt.id)
		if got == nil {
			t.Fatalf("Get(%d) = nil", tt.id)
		}
		if !strings.Contains(string(got.MarkdownMsg()), tt.want) {
			t.Errorf("Get(%d) message should contain %q", tt.id, tt.want)
		}
	}

	if Get(Id(0)) != nil {
		t.Error("Get(0) should be nil")
	}
}

func TestIssue_MarkdownLinks(t *testing.T) {
	t.Parallel()

	i := &Issue{id: 99, mdMsg: "# Title", docLinks: []HttpLink{"https://example.com/docs"}}
	md := i.Markdown()
	if !strings.HasPrefix(md, "# Title") || !strings.Contains(md, "- <https://example.com/docs>") {
		t.Errorf("Markdown() = %q", md)
	}

	links := i.DocLinks()
	links[0] = "mutated"
	if i.DocLinks()[0] != "https://example.com/docs" {
		t.Error("DocLinks() should return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(BuildFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Build failed") {
		t.Errorf("Render() output missing title: %q", out)
	}
}

func TestActionableError(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 2")
	err := NewErrorContext().
		WithOperation("build recipe").
		WithResource("otc-auth").
		WithSuggestion("Re-run with --keep-sandbox").
		WithSuggestions("Check toolchain.env", "Raise timeouts.build").
		WithIssue(BuildFailedId).
		Wrap(cause).
		Build()

	if got, want := err.Error(), "failed to build recipe: otc-auth: exit status 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("ActionableError should unwrap to its cause")
	}
	if err.Issue != BuildFailedId {
		t.Errorf("Issue = %d, want %d", err.Issue, BuildFailedId)
	}

	formatted := err.Format(false)
	for _, s := range []string{"• Re-run with --keep-sandbox", "• Check toolchain.env", "• Raise timeouts.build"} {
		if !strings.Contains(formatted, s) {
			t.Errorf("Format(false) missing %q:\n%s", s, formatted)
		}
	}
	if strings.Contains(formatted, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}
	if !strings.Contains(err.Format(true), "1. exit status 2") {
		t.Errorf("Format(true) should include the error chain:\n%s", err.Format(true))
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().Wrap(errors.New("boom"))
	if ctx.Build() != nil {
		t.Error("Build() without operation should be nil")
	}
	if err := ctx.BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}
}

func TestErrorContext_BuildCopiesSuggestions(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("fetch source").WithSuggestion("first")
	a := ctx.Build()
	ctx.WithSuggestion("second")
	if len(a.Suggestions) != 1 {
		t.Errorf("earlier Build() result changed: %q", a.Suggestions)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
	err := WrapWithContext(errors.New("denied"), "write receipt", "/opt/recipekit")
	if got, want := err.Error(), "failed to write receipt: /opt/recipekit: denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
