// File: cmd/selector-cli/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/xkilldash9x/selector-cli/cmd"
	"github.com/xkilldash9x/selector-cli/internal/observability"
)

const panicLogFile = "panic.log"

const banner = `
   ___  ___ | | ___  ___| |_ ___  _ __
  / __|/ _ \| |/ _ \/ __| __/ _ \| '__|
  \__ \  __/| |  __/ (__| || (_) | |
  |___/\___||_|\___|\___|\__\___/|_|

  Type a command (e.g. "generate page.html --select main"), or "exit".

`

// Function variables so tests can replace process level side effects.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
	// lineContext scopes signal handling to one shell line so a Ctrl+C
	// ends the running command and not the shell.
	lineContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	}
)

func main() {
	defer handlePanic()

	if len(os.Args) > 1 {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := cmd.Execute(ctx); err != nil {
			// cmd.Execute already logged the failure.
			if errors.Is(err, context.Canceled) {
				osExit(0)
			} else {
				osExit(1)
			}
		}
		return
	}

	fmt.Print(banner)
	if err := runShell(context.Background(), os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading from stdin:", err)
		osExit(1)
	}
	fmt.Println("Exiting selector-cli.")
}

// runShell reads commands line by line until EOF, exit, quit or the
// cancellation of ctx.
func runShell(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	for ctx.Err() == nil {
		fmt.Fprint(out, "selector-cli > ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		executeInteractiveCommand(ctx, line, out, errOut)
	}
	return scanner.Err()
}

// executeInteractiveCommand runs one shell line on a fresh command tree so
// flags from one line never leak into the next.
func executeInteractiveCommand(ctx context.Context, line string, out, errOut io.Writer) {
	ctx, stop := lineContext(ctx)
	defer stop()

	rootCmd := cmd.NewRootCommand()
	rootCmd.SetArgs(strings.Fields(line))
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(errOut, "Error: Command panicked: %v\n", r)
		}
	}()
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "Command aborted.")
	default:
		fmt.Fprintln(errOut, "Error:", err)
	}
}

// handlePanic writes the panic and its stack to panicLogFile and exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(1)
		return
	}

	fmt.Fprintf(os.Stderr, "\nselector-cli crashed. Details logged to %s\n", panicLogFile)
	osExit(1)
}
