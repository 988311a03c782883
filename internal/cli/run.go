// Package cli parses flags and wires the engine, source reader, and
// terminal backend into a runnable session, mirroring the teacher's
// internal/cli.Run(in, out, errOut, args, env, sigCh) int entry point
// shape so the whole program is driven by explicit parameters, never
// globals.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/snapfind/snapfind/internal/preview"
	"github.com/snapfind/snapfind/internal/source"
	"github.com/snapfind/snapfind/internal/tty"
	"github.com/snapfind/snapfind/internal/ui"
	"github.com/snapfind/snapfind/pkg/engine"
	"github.com/snapfind/snapfind/pkg/itemstore"
	"github.com/snapfind/snapfind/pkg/textbuf"
)

// Run is the main entry point. Returns the process exit code, per
// spec.md §6: 0 accept-nonempty, 1 accept-empty, 130 Ctrl-C, 2 I/O/TTY
// failure.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	flags := flag.NewFlagSet("snapfind", flag.ContinueOnError)
	flags.SetInterspersed(true)
	flags.Usage = func() {}
	flags.SetOutput(&strings.Builder{})

	var (
		flagHelp          = flags.BoolP("help", "h", false, "Show help")
		flagMulti         = flags.Bool("multi", false, "Tab toggles multi-selection; Enter outputs every selected item")
		flagCaseSensitive = flags.Bool("case-sensitive", false, "Disable ASCII case folding in the matcher")
		flagHeight        = flags.Int("height", 0, "Cap the number of visible rows (0 = full terminal height)")
		flagPreview       = flags.String("preview", "", "Preview command template; {} substitutes the current item, shell-quoted")
		flagPreviewFloat  = flags.String("preview-float", "", "Floating preview command template, same substitution as --preview")
		flagQuery         = flags.String("query", "", "Initial query")
		flagScheme        = flags.String("scheme", "default", "Ranking scheme: default, path, or history")
	)

	if err := flags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return ui.ExitIOFailure
	}

	if *flagHelp {
		printUsage(out)

		return 0
	}

	scheme, err := engine.ParseScheme(*flagScheme)
	if err != nil {
		fprintln(errOut, "error:", err)

		return ui.ExitIOFailure
	}

	previewTemplate := *flagPreview
	if previewTemplate == "" {
		previewTemplate = *flagPreviewFloat
	}

	backend := tty.NewBackend()
	if err := backend.Start(); err != nil {
		fprintln(errOut, "error:", err)

		return ui.ExitIOFailure
	}

	defer backend.Stop()

	buf := textbuf.New(0)
	store := itemstore.New()

	go func() {
		if _, err := source.Read(in, buf, store); err != nil {
			fprintln(errOut, "error reading input:", err)
		}

		buf.Seal()
		store.Seal()
	}()

	deps := ui.Deps{
		Store:           store,
		Buf:             buf,
		Engine:          engine.New(0),
		ChunkCache:      engine.NewChunkCache(),
		MergerCache:     engine.NewMergerCache(),
		Scheme:          scheme,
		CaseSensitive:   *flagCaseSensitive,
		Multi:           *flagMulti,
		DisplayHeight:   resolveHeight(*flagHeight),
		InitialQuery:    *flagQuery,
		Renderer:        backend,
		Input:           backend,
		Preview:         preview.NewShellRunner(),
		PreviewTemplate: previewTemplate,
		ErrOut:          errOut,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		code     int
		selected []string
	}

	done := make(chan result, 1)

	go func() {
		code, selected := ui.Run(ctx, deps)
		done <- result{code: code, selected: selected}
	}()

	select {
	case r := <-done:
		writeSelection(out, r.selected)

		return r.code
	case <-sigCh:
		cancel()
	}

	select {
	case r := <-done:
		writeSelection(out, r.selected)

		return r.code
	case <-time.After(5 * time.Second):
		return ui.ExitInterrupted
	}
}

func writeSelection(out io.Writer, selected []string) {
	for _, line := range selected {
		fprintln(out, line)
	}
}

func resolveHeight(flagHeight int) int {
	if flagHeight > 0 {
		return flagHeight
	}

	return 20
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const usageText = `snapfind - interactive fuzzy finder

Usage: snapfind [flags]

Flags:
  -h, --help                  Show help
      --multi                 Tab toggles multi-selection
      --case-sensitive        Disable ASCII case folding
      --height <N>            Cap visible rows (0 = full terminal height)
      --preview <cmd>         Preview command template ({} = current item)
      --preview-float <cmd>   Floating preview command template
      --query <s>             Initial query
      --scheme <s>            Ranking scheme: default, path, or history`

func printUsage(w io.Writer) {
	fprintln(w, usageText)
}
