package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestPrintVersion(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "0.1.0-test"
	GitCommit = "abc123"
	BuildDate = "2026-03-01"

	buf := &bytes.Buffer{}
	printVersion(buf)
	out := buf.String()

	for _, want := range []string{
		"Callisto 0.1.0-test",
		"Git Commit: abc123",
		"Build Date: 2026-03-01",
		"Go Version: " + runtime.Version(),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	info := buildInfo()
	if info.Version != "0.1.0-test" || info.Commit != "abc123" || info.BuildTime != "2026-03-01" {
		t.Errorf("buildInfo() = %+v", info)
	}
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}
