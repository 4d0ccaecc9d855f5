// internal/browser/browser_helper_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/selector-cli/internal/config"
)

// browserProcesses limits the number of concurrent browser processes across tests.
var browserProcesses = semaphore.NewWeighted(2)

const defaultBrowserTestTimeout = 90 * time.Second

// chromeCandidates are the executable names chromedp probes on Linux and macOS.
var chromeCandidates = []string{
	"headless_shell", "headless-shell", "chromium", "chromium-browser",
	"google-chrome", "google-chrome-stable", "google-chrome-beta",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// requireBrowser skips the test when no Chrome binary is available, and
// otherwise holds a process slot until the test ends.
func requireBrowser(t *testing.T) context.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	found := false
	for _, name := range chromeCandidates {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found && os.Getenv("CHROMEDP_EXEC_PATH") == "" {
		t.Skip("no Chrome executable found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultBrowserTestTimeout)
	t.Cleanup(cancel)
	require.NoError(t, browserProcesses.Acquire(ctx, 1))
	t.Cleanup(func() { browserProcesses.Release(1) })
	return ctx
}

// createTestConfig returns a headless configuration suited to CI.
func createTestConfig() config.BrowserConfig {
	cfg := config.NewDefaultConfig().Browser
	cfg.Headless = true
	cfg.ExecPath = os.Getenv("CHROMEDP_EXEC_PATH")
	cfg.Args = []string{"--disable-dev-shm-usage"}
	cfg.NavigationTimeout = 30 * time.Second
	return cfg
}

// createStaticTestServer serves htmlContent for every request.
func createStaticTestServer(t *testing.T, htmlContent string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, htmlContent)
	}))
	t.Cleanup(server.Close)
	return server
}
