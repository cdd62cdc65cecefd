package main

import (
	"strings"
	"testing"
)

func TestRootCommandName(t *testing.T) {
	if rootCmd.Use != "tk" {
		t.Fatalf("expected root command name tk, got %q", rootCmd.Use)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	for _, name := range []string{"add", "update", "done", "delete", "restore", "schedule", "show", "list", "search", "remind", "serve", "mcp", "chat", "tui"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestVersionString(t *testing.T) {
	prevVersion, prevCommit := buildVersion, buildCommit
	t.Cleanup(func() {
		buildVersion, buildCommit = prevVersion, prevCommit
	})

	buildVersion = "1.2.0"
	buildCommit = "abc123"
	if got, want := versionString(), "tk 1.2.0 (commit abc123)"; got != want {
		t.Fatalf("expected version string %q, got %q", want, got)
	}
}

func TestRootCommandHasVersion(t *testing.T) {
	if !strings.HasPrefix(rootCmd.Version, "tk ") {
		t.Fatalf("expected root command version, got %q", rootCmd.Version)
	}
}
