package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/keyfind/internal/config"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func runApp(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.loadOpts = config.LoadOptions{
		WorkDir:    t.TempDir(),
		ConfigHome: t.TempDir(),
		LookupEnv:  func(string) (string, bool) { return "", false },
	}
	a.terminal = func(io.Writer) bool { return false }
	code := a.run(ctx, append([]string{"--poll", "5ms"}, args...))
	return code, stdout.String(), stderr.String()
}

func jsonLines(t *testing.T, out string) []gjson.Result {
	t.Helper()
	var lines []gjson.Result
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		if !gjson.Valid(l) {
			t.Fatalf("invalid JSON line %q", l)
		}
		lines = append(lines, gjson.Parse(l))
	}
	return lines
}

func TestRun_JSON(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.txt": "foo bar\nnothing\nFOO again\n",
		"b.md":  "no match here\n",
	})

	code, out, stderr := runApp(t, context.Background(), "--json", "foo", dir)
	if code != exitMatch {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}

	lines := jsonLines(t, out)
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %s", len(lines), out)
	}
	tests := []struct {
		path string
		want string
	}{
		{"kind", "MATCH"},
		{"path", "a.txt"},
		{"line", "1"},
		{"snippet", "foo bar"},
	}
	for _, tt := range tests {
		if got := lines[0].Get(tt.path).String(); got != tt.want {
			t.Errorf("first record %s = %q, want %q", tt.path, got, tt.want)
		}
	}
	if lines[1].Get("line").Int() != 3 {
		t.Errorf("second match line = %d, want 3", lines[1].Get("line").Int())
	}

	last := lines[2]
	if last.Get("kind").String() != "FINISHED" || last.Get("state").String() != "completed" {
		t.Errorf("last record = %s", last.Raw)
	}
	if last.Get("matches").Int() != 2 || last.Get("filesMatched").Int() != 1 || last.Get("filesScanned").Int() != 2 {
		t.Errorf("totals = %s", last.Raw)
	}
	if last.Get("hints").Exists() {
		t.Errorf("hints present on a matching run: %s", last.Raw)
	}
}

func TestRun_NoMatchHints(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "FOO\n"})

	code, out, _ := runApp(t, context.Background(), "--json", "--case", "--word", "foo", dir)
	if code != exitNoMatch {
		t.Fatalf("exit code = %d, want %d", code, exitNoMatch)
	}
	lines := jsonLines(t, out)
	hints := lines[len(lines)-1].Get("hints").Array()
	var got []string
	for _, h := range hints {
		got = append(got, h.String())
	}
	joined := strings.Join(got, "|")
	if !strings.Contains(joined, "case-sensitive match") || !strings.Contains(joined, "whole-word match") {
		t.Errorf("hints = %v", got)
	}
}

func TestRun_Replace(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.txt":     "foo foo\r\nbar\r\n",
		"sub/b.txt": "a foo\n",
	})

	code, _, stderr := runApp(t, context.Background(), "--no-color", "--replace", "baz", "foo", dir)
	if code != exitMatch {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stderr, "replaced 3 of 3 matches in 2 of 2 files") {
		t.Errorf("summary = %q", stderr)
	}

	tests := map[string]string{
		"a.txt":     "baz baz\r\nbar\r\n",
		"sub/b.txt": "a baz\n",
	}
	for name, want := range tests {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
}

func TestRun_ReplaceWithEmpty(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "x-foo-y\n"})

	code, _, stderr := runApp(t, context.Background(), "--replace=", "foo", dir)
	if code != exitMatch {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	if string(data) != "x--y\n" {
		t.Errorf("content = %q", data)
	}
}

func TestRun_Plain(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.txt":     "one foo\n",
		"sub/c.txt": "foo two\n",
	})

	code, out, stderr := runApp(t, context.Background(), "--no-color", "--recurse=false", "foo", dir)
	if code != exitMatch {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if out != "a.txt:1: one foo\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(stderr, "found 1 match in 1 of 1 file") {
		t.Errorf("summary = %q", stderr)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "foo\n"})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing root", []string{"foo", filepath.Join(dir, "missing")}, "root"},
		{"no pattern", []string{}, "arg"},
		{"replacement equals pattern", []string{"--replace", "foo", "foo", dir}, "replacement"},
		{"bad log level", []string{"--log-level", "loud", "foo", dir}, "logging.level"},
		{"missing config", []string{"--config", filepath.Join(dir, "none.toml"), "foo", dir}, "config file not found"},
		{"bad poll", []string{"--poll", "0s", "foo", dir}, "pollInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runApp(t, context.Background(), tt.args...)
			if code != exitError {
				t.Errorf("exit code = %d, want %d", code, exitError)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to mention %q", stderr, tt.want)
			}
		})
	}
}

func TestRun_ConfigFile(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.proto":      "message Foo {}\n",
		"b.txt":        "Foo\n",
		"keyfind.yaml": "search:\n  fileType: Proto\nfileTypes:\n  - name: Proto\n    patterns: [\"*.proto\"]\n",
	})

	code, out, stderr := runApp(t, context.Background(),
		"--json", "--config", filepath.Join(dir, "keyfind.yaml"), "Foo", dir)
	if code != exitMatch {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	lines := jsonLines(t, out)
	if len(lines) != 2 || lines[0].Get("path").String() != "a.proto" {
		t.Errorf("output = %s", out)
	}
}

func TestRun_ListTypes(t *testing.T) {
	code, out, _ := runApp(t, context.Background(), "--list-types")
	if code != exitMatch {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "Go (*.go;go.mod;go.sum)\n") || !strings.Contains(out, "Makefile\n") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "foo\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, out, stderr := runApp(t, ctx, "--json", "foo", dir)
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "search cancelled") {
		t.Errorf("stderr = %q", stderr)
	}
	lines := jsonLines(t, out)
	if got := lines[len(lines)-1].Get("state").String(); got != "cancelled" {
		t.Errorf("state = %q, want cancelled", got)
	}
}
