// Package preview runs the user-supplied --preview command template
// against the currently highlighted candidate and captures its output.
//
// Grounded on the teacher's internal/fs package: OS interaction sits
// behind a small interface (Runner) so callers can substitute a fake in
// tests, exactly as fs.FS lets ticket code substitute fs.Chaos for
// fs.Real.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Timeout bounds how long a preview subprocess may run, per spec.md §5.
const Timeout = 2 * time.Second

// MaxBytes bounds how much of a preview subprocess's stdout is captured,
// per spec.md §5.
const MaxBytes = 1 << 20

// ErrTimeout classifies a preview run that was killed for exceeding
// Timeout, per spec.md §7's PreviewError: "subprocess failures and
// timeouts render as human-readable messages inside the preview pane;
// never fail the app."
var ErrTimeout = errors.New("preview: timed out")

// Runner executes a preview command template for one candidate's text.
type Runner interface {
	Run(ctx context.Context, template, text string) (string, error)
}

// ShellRunner runs the template through /bin/sh -c, substituting {}
// with the candidate text, shell-quoted.
type ShellRunner struct {
	// Shell is the interpreter invoked with "-c <command>". Defaults to
	// "/bin/sh" when empty.
	Shell string
}

// NewShellRunner returns a ShellRunner using /bin/sh.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Shell: "/bin/sh"}
}

// Run substitutes text into template and executes it with Timeout and
// MaxBytes enforced. A timeout or non-zero exit is never returned as an
// error the caller must propagate to the user — spec.md §7 treats both
// as renderable preview content instead — but Run still reports them so
// the caller (internal/ui) can choose the message to show.
func (r *ShellRunner) Run(ctx context.Context, template, text string) (string, error) {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmdline := Substitute(template, text)

	runCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, shell, "-c", cmdline)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("preview: start stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("preview: start: %w", err)
	}

	var buf bytes.Buffer

	_, copyErr := io.Copy(&buf, io.LimitReader(stdout, MaxBytes))

	waitErr := cmd.Wait()

	if runCtx.Err() != nil {
		return buf.String(), ErrTimeout
	}

	if copyErr != nil {
		return buf.String(), fmt.Errorf("preview: read output: %w", copyErr)
	}

	if waitErr != nil {
		return buf.String(), fmt.Errorf("preview: %w", waitErr)
	}

	return buf.String(), nil
}

// Substitute replaces every "{}" occurrence in template with text,
// single-quoted for shell safety (embedded single quotes are escaped
// using the standard '\'' idiom).
func Substitute(template, text string) string {
	return strings.ReplaceAll(template, "{}", quote(text))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
