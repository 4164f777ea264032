package watchdir

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Optimizer rewrites src into a smaller dest.
type Optimizer interface {
	Optimize(ctx context.Context, src, dest string) error
}

// GhostscriptOptimizer re-distills documents with Ghostscript and linearizes
// the result with qpdf.
type GhostscriptOptimizer struct {
	GS           string
	Qpdf         string
	Preset       Preset
	TargetSizeMB float64
	// Out receives warnings meant for the user.
	Out    io.Writer
	Logger pslog.Logger
}

// Optimize runs one Ghostscript pass per preset resolution until the output
// fits TargetSizeMB, or once when no target is set.
func (o GhostscriptOptimizer) Optimize(ctx context.Context, src, dest string) error {
	log := o.Logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	gs := o.GS
	if gs == "" {
		gs = "gs"
	}
	qpdf := o.Qpdf
	if qpdf == "" {
		qpdf = "qpdf"
	}
	tmp, err := os.MkdirTemp("", "pdfsuite-optimize-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)
	intermediate := filepath.Join(tmp, "optimized.pdf")

	target := int64(o.TargetSizeMB * 1024 * 1024)
	var size int64
	for attempt := 0; attempt < o.Preset.Attempts(); attempt++ {
		if err := runTool(ctx, gs, gsArgs(o.Preset.GSFlags(attempt), intermediate, src)...); err != nil {
			return err
		}
		if err := runTool(ctx, qpdf, "--linearize", intermediate, dest); err != nil {
			return err
		}
		if target <= 0 {
			return nil
		}
		size = fileSize(dest)
		log.Debug("watch optimize attempt", "attempt", attempt+1, "size", size, "target", target)
		if size > 0 && size <= target {
			return nil
		}
	}
	if o.Out != nil {
		fmt.Fprintf(o.Out, "Warning: target size %.1f MB not reached (result %.1f MB).\n", o.TargetSizeMB, float64(size)/(1024*1024))
	}
	return nil
}

func gsArgs(flags []string, dest, src string) []string {
	args := []string{"-sDEVICE=pdfwrite", "-dCompatibilityLevel=1.6"}
	args = append(args, flags...)
	return append(args, "-o", dest, src)
}

func runTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(output.String())
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, detail)
		}
		return fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
