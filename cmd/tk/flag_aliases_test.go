package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestTaskFlagAliasesUseSingleFlag(t *testing.T) {
	var due string
	cmd := &cobra.Command{Use: "example"}
	addTaskFlagAliases(cmd)
	cmd.Flags().StringVar(&due, "due", "", "Example due date")

	for _, name := range []string{"due-date", "due_date"} {
		if err := cmd.Flags().Set(name, "2030-01-01"); err != nil {
			t.Fatalf("set %s alias: %v", name, err)
		}
	}
	if due != "2030-01-01" {
		t.Fatalf("expected due to be set via alias, got %q", due)
	}
	if !cmd.Flags().Changed("due") {
		t.Fatal("expected due flag to be marked as changed")
	}

	usage := cmd.Flags().FlagUsages()
	if strings.Contains(usage, "--due-date") {
		t.Fatalf("did not expect alias to appear in usage, got %q", usage)
	}
}
