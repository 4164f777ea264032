package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pdfsuite/internal/watchdir"
	"pkt.systems/pslog"
)

func newWatchCmd() *cobra.Command {
	var dir string
	var preset string
	var targetSize float64
	var pollInterval float64
	var settle float64
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a folder for new PDFs and auto-optimize them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("path") {
				dir = cfg.Watch.Folder
			}
			if !flags.Changed("preset") {
				preset = cfg.Watch.Preset
			}
			if !flags.Changed("target-size") {
				targetSize = cfg.Watch.TargetSizeMB
			}
			if !flags.Changed("poll-interval") {
				pollInterval = cfg.Watch.PollIntervalSeconds
			}
			if !flags.Changed("settle") {
				settle = cfg.Watch.SettleSeconds
			}
			p, err := watchdir.LookupPreset(preset)
			if err != nil {
				return err
			}
			if err := requireTools(cfg.Tools.GS, cfg.Tools.Qpdf); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			watcher, err := watchdir.New(watchdir.Config{
				Dir:          dir,
				OutputDir:    filepath.Join(cfg.BuildRoot, "watch"),
				PollInterval: seconds(pollInterval),
				Settle:       seconds(settle),
				Optimizer: watchdir.GhostscriptOptimizer{
					GS:           cfg.Tools.GS,
					Qpdf:         cfg.Tools.Qpdf,
					Preset:       p,
					TargetSizeMB: targetSize,
					Out:          cmd.ErrOrStderr(),
					Logger:       logger,
				},
				Out:    out,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			if dir == "" {
				dir = watchdir.DefaultDir()
			}
			fmt.Fprintf(out, "[watch] Monitoring %s using preset '%s'. Ctrl+C to stop.\n", dir, p.Name)
			return watcher.Run(cmd.Context(), once)
		},
	}
	cmd.Flags().StringVarP(&dir, "path", "p", "", "directory to monitor for PDFs")
	cmd.Flags().StringVar(&preset, "preset", "report", "optimize preset to apply (email/report/poster)")
	cmd.Flags().Float64Var(&targetSize, "target-size", 0, "optional size goal in MB for the optimizer")
	cmd.Flags().Float64Var(&pollInterval, "poll-interval", 5, "seconds between scans")
	cmd.Flags().Float64Var(&settle, "settle", 2, "wait time after file modification before processing")
	cmd.Flags().BoolVar(&once, "once", false, "scan directory once and exit")
	return cmd
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}
