package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/pdfsuite/internal/runner"
	"pkt.systems/pslog"
)

func newSuperviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supervise",
		Short: "Run the configured background watch and relay its output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			logger := pslog.Ctx(ctx)
			watch := runner.NewWatch(runner.WatchConfig{
				Sink: runner.Fanout(
					func(line string) { fmt.Fprintln(out, line) },
					func(line string) { logger.Trace("watch output", "line", line) },
				),
				StopGrace: seconds(cfg.Watch.StopGraceSeconds),
				Logger:    logger,
			})
			if err := watch.StartPreset(ctx, cfg.WatchSettings()); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				watch.Stop()
			case <-watch.Done():
			}
			return nil
		},
	}
}
