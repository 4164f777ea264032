package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"pkt.systems/pdfsuite/core"
	"pkt.systems/pdfsuite/internal/bookmarks"
	"pkt.systems/pdfsuite/schema"
)

func TestArgv0Alias(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "pdfwatch", want: "watch"},
		{base: "pdfsuite-watch", want: "watch"},
		{base: "pdfdoctor", want: "doctor"},
		{base: "pdfsuite", want: ""},
	}
	for _, tc := range tests {
		if got := argv0Alias(tc.base); got != tc.want {
			t.Fatalf("argv0Alias(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestApplyArgv0Alias(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "empty", args: nil, want: nil},
		{name: "no-alias", args: []string{"pdfsuite", "doctor"}, want: []string{"pdfsuite", "doctor"}},
		{name: "pdfwatch", args: []string{"/usr/bin/pdfwatch", "--once"}, want: []string{"/usr/bin/pdfwatch", "watch", "--once"}},
	}
	for _, tc := range tests {
		if got := applyArgv0Alias(tc.args); !slices.Equal(got, tc.want) {
			t.Fatalf("%s: applyArgv0Alias = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"reorder", "bookmarks", "edit", "watch", "supervise", "doctor", "config", "version"} {
		if !slices.Contains(names, want) {
			t.Fatalf("missing command %q in %v", want, names)
		}
	}
}

func TestReorderArgv(t *testing.T) {
	got, err := reorderArgv("qpdf", "in.pdf", "5-7, 1-4,8-end", []string{"90:1", "-90:2-3"}, "out.pdf")
	if err != nil {
		t.Fatalf("reorder argv: %v", err)
	}
	want := []string{"qpdf", "in.pdf", "--rotate=+90:1", "--rotate=+270:2-3", "--pages", "in.pdf", "5-7,1-4,8-z", "--", "out.pdf"}
	if !slices.Equal(got, want) {
		t.Fatalf("argv = %q\nwant %q", got, want)
	}
	if _, err := reorderArgv("qpdf", "in.pdf", " , ", nil, "out.pdf"); !errors.Is(err, schema.ErrInvalidPageRange) {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestMissingTools(t *testing.T) {
	present := map[string]bool{"qpdf": true, "diffpdf": true}
	lookPath := func(name string) (string, error) {
		if present[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	got := missingTools([]string{"qpdf", "gs", "diff-pdf|diffpdf", "pdfcpu|pdfcpu2"}, lookPath)
	want := []string{"gs", "pdfcpu (or pdfcpu2)"}
	if !slices.Equal(got, want) {
		t.Fatalf("missing = %v", got)
	}
	var buf bytes.Buffer
	if err := reportDoctor(&buf, got); err == nil {
		t.Fatalf("expected error for missing tools")
	}
	if !strings.Contains(buf.String(), "Missing tools:\n  - gs\n  - pdfcpu (or pdfcpu2)") {
		t.Fatalf("report = %q", buf.String())
	}
	buf.Reset()
	if err := reportDoctor(&buf, nil); err != nil || !strings.Contains(buf.String(), "All core tools present") {
		t.Fatalf("report = %q, err = %v", buf.String(), err)
	}
}

func TestApplyEdits(t *testing.T) {
	session, err := core.NewSession("doc.pdf", []int{1, 2, 3, 4}, schema.SessionConfig{BuildRoot: t.TempDir(), Executable: "pdfsuite"})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	err = applyEdits(session, editOptions{
		order:   "4,3,2,1",
		moves:   []string{"4:1"},
		rotates: []string{"90:1"},
		deletes: "4",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := session.Order(); !slices.Equal(got, []int{1, 4, 3}) {
		t.Fatalf("order = %v", got)
	}
	if got := session.Rotations(); got[1] != 90 || len(got) != 1 {
		t.Fatalf("rotations = %v", got)
	}

	if err := applyEdits(session, editOptions{rotates: []string{"45:1"}}); !errors.Is(err, schema.ErrInvalidRotation) {
		t.Fatalf("expected rotation error, got %v", err)
	}
	if err := applyEdits(session, editOptions{moves: []string{"1"}}); !errors.Is(err, schema.ErrInvalidArgument) {
		t.Fatalf("expected move error, got %v", err)
	}
	if err := applyEdits(session, editOptions{order: "1,2"}); !errors.Is(err, schema.ErrPageMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestPrintBookmarkTree(t *testing.T) {
	nodes := bookmarks.Parse("BookmarkBegin\nBookmarkTitle: A\nBookmarkLevel: 1\nBookmarkPageNumber: 1\n" +
		"BookmarkBegin\nBookmarkTitle: B\nBookmarkLevel: 2\nBookmarkPageNumber: 3\n")
	var buf bytes.Buffer
	if err := printBookmarkTree(&buf, nodes, 0); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "A (p. 1)\n  B (p. 3)\n" {
		t.Fatalf("tree = %q", buf.String())
	}
}

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	buildRoot := filepath.Join(dir, "build")
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("config_version: 1\nbuild_root: %s\ntools:\n  self: pdfsuite\n", buildRoot)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, buildRoot
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	out, err := execute(t, "config", "init", "-c", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("output = %q", out)
	}
	if _, err := execute(t, "config", "init", "-c", path); err == nil {
		t.Fatalf("expected error without --overwrite")
	}
	if _, err := execute(t, "config", "init", "-c", path, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestBookmarksShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.txt")
	nodes := []*bookmarks.Node{{Title: "Intro", Level: 1, Page: 2, Children: []*bookmarks.Node{{Title: "Scope", Level: 2, Page: 3}}}}
	if err := bookmarks.WriteFile(path, nodes); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execute(t, "bookmarks", "show", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != "Intro (p. 2)\n  Scope (p. 3)\n" {
		t.Fatalf("output = %q", out)
	}
	out, err = execute(t, "bookmarks", "show", "--normalize", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != bookmarks.Serialize(nodes) {
		t.Fatalf("output = %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, " v") {
		t.Fatalf("output = %q", out)
	}
	out, err = execute(t, "version", "--json")
	if err != nil || !strings.Contains(out, `"go_version"`) {
		t.Fatalf("json output = %q, err = %v", out, err)
	}
}

func TestEditDryRun(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	doc := filepath.Join(t.TempDir(), "doc.pdf")
	writeTestPDF(t, doc, 3)
	dest := filepath.Join(t.TempDir(), "out.pdf")
	out, err := execute(t, "edit", doc, "-c", cfgPath, "--move", "3:1", "--rotate", "180:2", "--dry-run", "-o", dest)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	want := "$ pdfsuite reorder " + doc + " --order 3,1,2 --rotate 180:2 -o " + dest
	if !strings.Contains(out, want) {
		t.Fatalf("output = %q\nwant line %q", out, want)
	}
	if !strings.Contains(out, "[shared] "+doc+": 3,1,2") {
		t.Fatalf("expected shared event, got %q", out)
	}
}

func TestEditWithoutChanges(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	doc := filepath.Join(t.TempDir(), "doc.pdf")
	writeTestPDF(t, doc, 2)
	out, err := execute(t, "edit", doc, "-c", cfgPath)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out, "No changes to commit.") {
		t.Fatalf("output = %q", out)
	}
}

// writeTestPDF writes a minimal document with the given number of blank pages.
func writeTestPDF(t *testing.T, path string, pages int) {
	t.Helper()
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages),
	}
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 300] >>")
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
}
