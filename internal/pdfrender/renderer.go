// Package pdfrender implements core.Renderer with a native page counter and
// the poppler pdftoppm rasterizer.
package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"pkt.systems/pdfsuite/core"
	"pkt.systems/pdfsuite/schema"
	"pkt.systems/pslog"
)

// DefaultDPI is the rasterization resolution when none is configured.
const DefaultDPI = 72

// Config controls the renderer.
type Config struct {
	// Pdftoppm is the rasterizer binary (default "pdftoppm").
	Pdftoppm string
	DPI      int
	Logger   pslog.Logger
}

// Renderer loads a document and renders single pages as images.
type Renderer struct {
	cfg Config
	log pslog.Logger

	mu    sync.Mutex
	path  string
	pages int
}

var _ core.Renderer = (*Renderer)(nil)

// New constructs a Renderer.
func New(cfg Config) *Renderer {
	if strings.TrimSpace(cfg.Pdftoppm) == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Renderer{cfg: cfg, log: logger}
}

// Load opens path and records its page count.
func (r *Renderer) Load(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	pages, err := countPages(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.path = path
	r.pages = pages
	r.mu.Unlock()
	r.log.Debug("pdf loaded", "path", path, "pages", pages)
	return nil
}

// countPages reads the page count, converting parser panics on malformed
// input into errors.
func countPages(path string) (pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse %s: %v", path, rec)
		}
	}()
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// PageCount returns the page count of the loaded document, or 0.
func (r *Renderer) PageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pages
}

// Render rasterizes the 1-based page so its longest side fits size.
func (r *Renderer) Render(ctx context.Context, page int, size image.Point) (image.Image, error) {
	r.mu.Lock()
	path, pages := r.path, r.pages
	r.mu.Unlock()
	if path == "" {
		return nil, schema.ErrDocumentNotLoaded
	}
	if page < 1 || page > pages {
		return nil, fmt.Errorf("page %d outside 1..%d: %w", page, pages, schema.ErrInvalidArgument)
	}
	args := renderArgs(r.cfg.DPI, page, size, path)
	cmd := exec.CommandContext(ctx, r.cfg.Pdftoppm, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		r.log.Warn("pdftoppm failed", "page", page, "err", err, "stderr", strings.TrimSpace(stderr.String()))
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return img, nil
}

func renderArgs(dpi, page int, size image.Point, path string) []string {
	p := strconv.Itoa(page)
	args := []string{"-png", "-r", strconv.Itoa(dpi), "-f", p, "-l", p, "-singlefile"}
	if longest := max(size.X, size.Y); longest > 0 {
		args = append(args, "-scale-to", strconv.Itoa(longest))
	}
	return append(args, path)
}
