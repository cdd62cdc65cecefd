package main

import (
	"github.com/amonks/tasks/internal/tasktui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and manage tasks interactively",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	interval, err := app.cfg.ReminderInterval()
	if err != nil {
		return err
	}
	return tasktui.Run(cmd.Context(), app.svc, tasktui.Options{RefreshInterval: interval})
}
