package main

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	args := applyArgv0Alias(os.Args)
	root := newRootCmd()
	root.SetArgs(args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *toolExitError
		if errors.As(err, &exitErr) {
			pslog.Ctx(ctx).Warn("tool failed", "tool", exitErr.tool, "exit_code", exitErr.code)
			if exitErr.code > 0 {
				return exitErr.code
			}
			return 1
		}
		pslog.Ctx(ctx).With("err", err).Error("pdfsuite command failed")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pdfsuite",
		Short:         "PDF toolbox: page sessions, bookmarks and folder watching on top of qpdf, pdftk and Ghostscript",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file path (default ~/.pdfsuite/config.yaml)")

	root.AddCommand(newReorderCmd())
	root.AddCommand(newBookmarksCmd())
	root.AddCommand(newEditCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newSuperviseCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func argv0Alias(base string) string {
	switch base {
	case "pdfwatch", "pdfsuite-watch":
		return "watch"
	case "pdfdoctor", "pdfsuite-doctor":
		return "doctor"
	default:
		return ""
	}
}

func applyArgv0Alias(args []string) []string {
	if len(args) == 0 {
		return args
	}
	alias := argv0Alias(filepath.Base(args[0]))
	if alias == "" {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0], alias)
	out = append(out, args[1:]...)
	return out
}
