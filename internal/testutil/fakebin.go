// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
)

// RequirePOSIXShell skips the test on platforms where fake executables
// written as /bin/sh scripts cannot run.
func RequirePOSIXShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping: fake executables are POSIX shell scripts")
	}
}

// WriteExecutable writes a /bin/sh script named name into dir and returns
// its path.
func WriteExecutable(t testing.TB, dir, name, body string) string {
	t.Helper()
	RequirePOSIXShell(t)
	path := filepath.Join(dir, name)
	MustWriteFile(t, path, []byte("#!/bin/sh\n"+body), 0o755)
	return path
}

// FakeGo writes a stand-in for the go command into dir. Invoked as
// `go build -ldflags "-X main.version=V -X main.date=D"`, it records its
// arguments in build-args.txt in the working directory and produces an
// executable named artifact that prints "<product> V (D)" on stderr, the
// way a stamped binary answers its version subcommand.
func FakeGo(t testing.TB, dir, product, artifact string) string {
	t.Helper()
	body := fmt.Sprintf(`printf '%%s\n' "$@" > build-args.txt
flags="$3"
version=$(printf '%%s\n' "$flags" | sed -n 's/.*-X main\.version=\([^ ]*\).*/\1/p')
date=$(printf '%%s\n' "$flags" | sed -n 's/.*-X main\.date=\([^ ]*\).*/\1/p')
cat > %[2]s <<SCRIPT
#!/bin/sh
echo "%[1]s $version ($date)" >&2
SCRIPT
chmod 755 %[2]s
`, product, artifact)
	return WriteExecutable(t, dir, "go", body)
}

// FailingGo writes a go stand-in that prints diagnostics and exits with code.
func FailingGo(t testing.TB, dir, diagnostics string, code int) string {
	t.Helper()
	body := fmt.Sprintf("cat >&2 <<'EOF'\n%s\nEOF\nexit %d\n", diagnostics, code)
	return WriteExecutable(t, dir, "go", body)
}
