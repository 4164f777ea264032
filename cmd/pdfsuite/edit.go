package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pdfsuite/core"
	"pkt.systems/pdfsuite/internal/eventbus"
	"pkt.systems/pdfsuite/internal/pdfrender"
	"pkt.systems/pdfsuite/internal/runner"
	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

type editOptions struct {
	order   string
	moves   []string
	rotates []string
	deletes string
	output  string
	dryRun  bool
}

func newEditCmd() *cobra.Command {
	var opts editOptions
	cmd := &cobra.Command{
		Use:   "edit <input>",
		Short: "Rearrange pages in a session and commit the result through the job queue",
		Long: "Positions are 1-based indexes into the current page order. Operations are applied as\n" +
			"--order, then each --move, then each --rotate, then --delete.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.order, "order", "", "replace the page order with these page numbers (e.g. 3,1,2)")
	cmd.Flags().StringArrayVar(&opts.moves, "move", nil, "move positions to a target position, <positions>:<target> (repeatable)")
	cmd.Flags().StringArrayVar(&opts.rotates, "rotate", nil, "rotate positions, <angle>:<positions> (repeatable)")
	cmd.Flags().StringVar(&opts.deletes, "delete", "", "delete pages at these positions")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PDF (default: timestamped folder under the build root)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the commit command instead of running it")
	return cmd
}

func runEdit(cmd *cobra.Command, input string, opts editOptions) error {
	ctx := cmd.Context()
	logger := pslog.Ctx(ctx)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := ensureFile(input, "input PDF"); err != nil {
		return err
	}
	renderer := pdfrender.New(pdfrender.Config{Pdftoppm: cfg.Tools.Pdftoppm, DPI: cfg.Render.DPI, Logger: logger})
	session, err := core.OpenSession(ctx, renderer, input, cfg.SessionConfig())
	if err != nil {
		return err
	}

	bus := eventbus.New(logger)
	out := cmd.OutOrStdout()
	unsubscribe := bus.Subscribe(func(ev eventbus.Event) {
		if ev.Session == nil {
			return
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", ev.Type, ev.Session.Path(), core.JoinPages(ev.Session.Order()))
	})
	defer unsubscribe()

	if err := applyEdits(session, opts); err != nil {
		return err
	}
	bus.Share(session)
	if !session.Dirty() {
		fmt.Fprintln(out, "No changes to commit.")
		return nil
	}

	if opts.dryRun {
		return session.Commit(ctx, printSubmitter{out: out}, core.CommitOptions{OutputPath: opts.output})
	}

	queue, err := runner.NewQueue(runner.Config{Root: cfg.BuildRoot, Logger: logger})
	if err != nil {
		return err
	}
	defer queue.Close()
	var exitCode int
	var jobDir string
	err = session.Commit(ctx, queue, core.CommitOptions{
		OutputPath: opts.output,
		OnOutput: runner.Fanout(
			func(line string) { fmt.Fprintln(out, line) },
			func(line string) { logger.Trace("job output", "line", line) },
		),
		OnFinished: func(code int, dir string) {
			exitCode = code
			jobDir = dir
		},
	})
	if err != nil {
		return err
	}
	if err := queue.Wait(ctx); err != nil {
		return err
	}
	if exitCode != 0 {
		return &toolExitError{tool: "reorder", code: exitCode}
	}
	fmt.Fprintf(out, "Log: %s\n", jobDir)
	bus.AnnounceCommit(session)
	return nil
}

func applyEdits(session *core.Session, opts editOptions) error {
	if strings.TrimSpace(opts.order) != "" {
		pages, err := parseIntList(opts.order)
		if err != nil {
			return fmt.Errorf("--order: %w", err)
		}
		if err := session.SetOrder(pages); err != nil {
			return err
		}
	}
	for _, move := range opts.moves {
		positions, target, ok := strings.Cut(move, ":")
		if !ok {
			return fmt.Errorf("--move %q must look like <positions>:<target>: %w", move, schema.ErrInvalidArgument)
		}
		rows, err := parseRows(positions)
		if err != nil {
			return fmt.Errorf("--move: %w", err)
		}
		to, err := strconv.Atoi(strings.TrimSpace(target))
		if err != nil {
			return fmt.Errorf("--move target %q: %w", target, schema.ErrInvalidArgument)
		}
		session.Reorder(rows, to-1)
	}
	for _, rotate := range opts.rotates {
		angleText, positions, ok := strings.Cut(rotate, ":")
		if !ok {
			return fmt.Errorf("--rotate %q must look like <angle>:<positions>: %w", rotate, schema.ErrInvalidArgument)
		}
		angle, err := strconv.Atoi(strings.TrimSpace(angleText))
		if err != nil {
			return fmt.Errorf("--rotate angle %q: %w", angleText, schema.ErrInvalidRotation)
		}
		rows, err := parseRows(positions)
		if err != nil {
			return fmt.Errorf("--rotate: %w", err)
		}
		if err := session.Rotate(rows, angle); err != nil {
			return err
		}
	}
	if strings.TrimSpace(opts.deletes) != "" {
		rows, err := parseRows(opts.deletes)
		if err != nil {
			return fmt.Errorf("--delete: %w", err)
		}
		session.Delete(rows)
	}
	return nil
}

// parseRows converts 1-based positions into 0-based rows.
func parseRows(value string) ([]int, error) {
	positions, err := parseIntList(value)
	if err != nil {
		return nil, err
	}
	rows := make([]int, len(positions))
	for i, pos := range positions {
		rows[i] = pos - 1
	}
	return rows, nil
}

func parseIntList(value string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number: %w", part, schema.ErrInvalidArgument)
		}
		out = append(out, n)
	}
	return out, nil
}

// printSubmitter prints jobs instead of running them.
type printSubmitter struct {
	out io.Writer
}

func (p printSubmitter) Submit(job core.Job) {
	fmt.Fprintf(p.out, "$ %s\n", runner.RenderCommand(job.Command))
}

var _ core.JobSubmitter = printSubmitter{}

