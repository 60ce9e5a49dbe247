package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/tsawler/outliner/internal/pdftest"
	"github.com/tsawler/outliner/model"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), append([]string{"outliner", "-q"}, args...))
	return out.String(), err
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		quiet   bool
		logInfo bool
		wantErr bool
	}{
		{name: "info text", level: "info", format: "text", logInfo: true},
		{name: "debug json", level: "debug", format: "json", logInfo: true},
		{name: "warn hides info", level: "warn", format: "text"},
		{name: "quiet hides info", level: "debug", format: "text", quiet: true},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format, tt.quiet)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			logger.Info("hello", "k", "v")
			if got := buf.Len() > 0; got != tt.logInfo {
				t.Errorf("info logged = %v, want %v (%q)", got, tt.logInfo, buf.String())
			}
			if tt.format == "json" && tt.logInfo && !json.Valid(bytes.TrimSpace(buf.Bytes())) {
				t.Errorf("json output not valid: %q", buf.String())
			}
		})
	}
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.Write(t, dir, "intro.pdf", pdftest.HeadingDocument())
	outDir := filepath.Join(dir, "out")

	stdout, err := runApp(t, "extract", "-o", outDir, in)
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if !strings.Contains(stdout, "1 document processed (1 ok, 0 empty, 0 failed)") {
		t.Errorf("stdout = %q", stdout)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "intro.json"))
	if err != nil {
		t.Fatal(err)
	}
	var o model.Outline
	if err := json.Unmarshal(data, &o); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(o.Headings) != 1 || o.Headings[0].Text != "1. Introduction" || o.Headings[0].Page != 1 {
		t.Errorf("outline = %+v", o)
	}
}

func TestExtractCommandFailures(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(broken, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runApp(t, "extract", "-o", filepath.Join(dir, "out"), broken)
	var exit cli.ExitCoder
	if err == nil || !asExitCoder(err, &exit) || exit.ExitCode() != 1 {
		t.Errorf("extract error = %v, want exit code 1", err)
	}

	if _, err := runApp(t, "extract", "-o", dir); err == nil {
		t.Error("extract without inputs should fail")
	}
	if _, err := runApp(t, "extract", "--workers", "-1", dir); err == nil {
		t.Error("extract with negative workers should fail")
	}
}

func asExitCoder(err error, target *cli.ExitCoder) bool {
	ec, ok := err.(cli.ExitCoder)
	if ok {
		*target = ec
	}
	return ok
}

func TestLedgerAndSearchCommands(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.Write(t, dir, "intro.pdf", pdftest.HeadingDocument())
	ledgerPath := filepath.Join(dir, "runs.db")
	indexPath := filepath.Join(dir, "outlines.bleve")

	if _, err := runApp(t, "extract", "-o", filepath.Join(dir, "out"),
		"--ledger", ledgerPath, "--index", indexPath, in); err != nil {
		t.Fatalf("extract error = %v", err)
	}

	stdout, err := runApp(t, "runs", "--ledger", ledgerPath)
	if err != nil {
		t.Fatalf("runs error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "RUN") {
		t.Fatalf("runs output = %q", stdout)
	}
	runID := strings.Fields(lines[1])[0]

	stdout, err = runApp(t, "runs", "--ledger", ledgerPath, "--run", runID)
	if err != nil {
		t.Fatalf("runs --run error = %v", err)
	}
	if !strings.Contains(stdout, "ok") || !strings.Contains(stdout, "intro.pdf") {
		t.Errorf("runs --run output = %q", stdout)
	}

	if _, err := runApp(t, "runs", "--ledger", ledgerPath, "--run", "nope"); err == nil {
		t.Error("runs --run with an unknown id should fail")
	}

	stdout, err = runApp(t, "search", "--index", indexPath, "introduction")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(stdout, "intro.pdf") || !strings.Contains(stdout, "1 of 1 matches") {
		t.Errorf("search output = %q", stdout)
	}

	stdout, err = runApp(t, "search", "--index", indexPath, "zebra")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(stdout, "No matches") {
		t.Errorf("search output = %q", stdout)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.Write(t, dir, "intro.pdf", pdftest.HeadingDocument())

	stdout, err := runApp(t, "inspect", in)
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	if !strings.HasPrefix(stdout, "PAGE") || !strings.Contains(stdout, "1. Introduction") {
		t.Errorf("inspect output = %q", stdout)
	}
	if !strings.Contains(stdout, "1 headings") {
		t.Errorf("inspect summary missing: %q", stdout)
	}

	if _, err := runApp(t, "inspect"); err == nil {
		t.Error("inspect without a file should fail")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate() = %q", got)
	}
}
