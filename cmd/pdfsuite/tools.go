package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pdfsuite/internal/appconfig"
	"pkt.systems/pdfsuite/internal/logx"
	"pkt.systems/pdfsuite/internal/runner"
	"pkt.systems/pslog"
)

// toolExitError carries a wrapped tool's non-zero exit code out of the CLI.
type toolExitError struct {
	tool string
	code int
}

func (e *toolExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.tool, e.code)
}

func loadConfig(cmd *cobra.Command) (appconfig.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return appconfig.Config{}, err
	}
	cfg, err := appconfig.Load(path)
	if err != nil {
		return appconfig.Config{}, err
	}
	if strings.TrimSpace(cfg.Tools.Self) == "" {
		if exe, err := os.Executable(); err == nil {
			cfg.Tools.Self = exe
		}
	}
	return cfg, nil
}

// requireTools fails when any of the named binaries is not on PATH.
func requireTools(tools ...string) error {
	var missing []string
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, " "))
	}
	return nil
}

// ensureFile fails unless path names an existing regular file.
func ensureFile(path, label string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s not found: %s", label, path)
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a file: %s", label, path)
	}
	return nil
}

// runTool runs argv with its output streamed to out and converts a non-zero
// exit into a toolExitError.
func runTool(ctx context.Context, out io.Writer, argv ...string) error {
	log := logx.WithTool(pslog.Ctx(ctx), filepath.Base(argv[0]))
	log.Debug("tool exec", "cmd", runner.RenderCommand(argv))
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &toolExitError{tool: filepath.Base(argv[0]), code: exitErr.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", filepath.Base(argv[0]), err)
	}
	return nil
}
