package main

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
)

const installHints = `
Install hints (Linux): sudo apt install qpdf ghostscript ocrmypdf tesseract-ocr pdftk-java default-jre poppler-utils mat2 diffpdf
Install hints (Windows): winget/choco for qpdf, ghostscript, tesseract; pdfcpu from GitHub releases; pdftk-java + Java.
`

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report missing external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			missing := missingTools(cfg.Doctor.Tools, exec.LookPath)
			logger.Info("doctor checked tools", "checked", len(cfg.Doctor.Tools), "missing", len(missing))
			return reportDoctor(cmd.OutOrStdout(), missing)
		},
	}
}

// missingTools returns the entries of tools with no binary on PATH. An entry
// may list alternatives separated by "|"; any one of them satisfies it.
func missingTools(tools []string, lookPath func(string) (string, error)) []string {
	var missing []string
	for _, entry := range tools {
		alternatives := strings.Split(entry, "|")
		found := false
		for _, name := range alternatives {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, err := lookPath(name); err == nil {
				found = true
				break
			}
		}
		if found {
			continue
		}
		if len(alternatives) > 1 {
			missing = append(missing, fmt.Sprintf("%s (or %s)", strings.TrimSpace(alternatives[0]), strings.Join(trimAll(alternatives[1:]), ", ")))
		} else {
			missing = append(missing, strings.TrimSpace(entry))
		}
	}
	return missing
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func reportDoctor(w io.Writer, missing []string) error {
	if len(missing) == 0 {
		_, err := fmt.Fprintln(w, "All core tools present. You're good to go.")
		return err
	}
	fmt.Fprintf(w, "Missing tools:\n  - %s\n", strings.Join(missing, "\n  - "))
	fmt.Fprint(w, installHints)
	return fmt.Errorf("%d tools missing", len(missing))
}
