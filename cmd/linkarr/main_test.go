package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "linkarr ") {
		t.Fatalf("version output = %q", out)
	}
}

func TestConfigInitWritesSampleOnce(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output does not mention target: %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "tmdb") {
		t.Fatalf("sample config missing tmdb section")
	}

	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatalf("expected error when sample already exists")
	}
}

func TestConfigPathCommand(t *testing.T) {
	out, err := executeCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, "config.toml") {
		t.Fatalf("config path output = %q", out)
	}
}

func TestParseRecordID(t *testing.T) {
	if _, err := parseRecordID("abc"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
	if _, err := parseRecordID("0"); err == nil {
		t.Fatalf("expected error for zero id")
	}
	id, err := parseRecordID(" 42 ")
	if err != nil || id != 42 {
		t.Fatalf("parseRecordID = %d, %v", id, err)
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "(not set)" {
		t.Fatalf("empty key = %q", got)
	}
	if got := maskKey("ab"); got != "****" {
		t.Fatalf("short key = %q", got)
	}
	got := maskKey("abcdef123456")
	if !strings.HasSuffix(got, "3456") || strings.Contains(got, "abcdef") {
		t.Fatalf("masked key = %q", got)
	}
}

func TestRenderTableFillsMissingCells(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}}, 1)
	if !strings.Contains(out, "A") || !strings.Contains(out, "1") {
		t.Fatalf("table output = %q", out)
	}
}
