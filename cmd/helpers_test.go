// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Shop</title></head>
<body>
  <nav id="top"><a href="/">Home</a><a href="/cart">Cart</a></nav>
  <main>
    <ul class="items">
      <li class="item">One</li>
      <li class="item sale">Two</li>
      <li class="item">Three</li>
    </ul>
  </main>
</body>
</html>`

// testEnv isolates the state file of one test.
type testEnv struct {
	t     *testing.T
	dir   string
	state string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("SELECTOR_LOGGER_LEVEL", "error")
	dir := t.TempDir()
	return &testEnv{t: t, dir: dir, state: filepath.Join(dir, "state.json")}
}

// writePage writes content to a file in the test directory and returns its path.
func (e *testEnv) writePage(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the command tree with args against the isolated state file.
func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--state", e.state, "--journal="))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// stubClipboard replaces the clipboard writer for the duration of the test.
func stubClipboard(t *testing.T) *[]string {
	t.Helper()
	var copied []string
	original := writeClipboard
	writeClipboard = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	t.Cleanup(func() { writeClipboard = original })
	return &copied
}
