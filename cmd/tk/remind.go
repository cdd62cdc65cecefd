package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amonks/tasks/internal/ui"
	"github.com/amonks/tasks/task"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "List tasks whose reminder time has passed",
	Long: `List tasks whose reminder time has passed.

With --watch, poll on the configured interval and print each task the first
time its reminder comes due, until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runRemind,
}

var (
	remindWatch    bool
	remindInterval time.Duration
	remindJSON     bool
)

func init() {
	rootCmd.AddCommand(remindCmd)
	remindCmd.Flags().BoolVarP(&remindWatch, "watch", "w", false, "Keep polling for reminders")
	remindCmd.Flags().DurationVar(&remindInterval, "interval", 0, "Poll interval (default from config, 1m)")
	remindCmd.Flags().BoolVar(&remindJSON, "json", false, "Output as JSON")
}

func runRemind(cmd *cobra.Command, args []string) error {
	if !remindWatch {
		due, err := app.svc.CheckReminders()
		if err != nil {
			return err
		}
		if remindJSON {
			return encodeJSONToStdout(due)
		}
		printTaskTable(due, time.Now())
		return nil
	}

	interval := remindInterval
	if interval <= 0 {
		var err error
		if interval, err = app.cfg.ReminderInterval(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchReminders(ctx, app.svc, interval, app.logger, func(t task.Task) error {
		if remindJSON {
			return encodeJSONToStdout(t)
		}
		fmt.Printf("Reminder: task %s %s (%s)\n", ui.HighlightID(t.ID), t.Title, ui.FormatDate(t.Reminder))
		return nil
	})
}

// watchReminders calls notify once per task whose reminder is due, checking
// immediately and then on every tick until ctx is done.
func watchReminders(ctx context.Context, svc *task.Service, interval time.Duration, logger *zap.Logger, notify func(task.Task) error) error {
	seen := map[int]bool{}
	check := func() error {
		due, err := svc.CheckReminders()
		if err != nil {
			return err
		}
		for _, t := range due {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			if err := notify(t); err != nil {
				return err
			}
		}
		return nil
	}

	if err := check(); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := check(); err != nil {
				logger.Warn("check reminders", zap.Error(err))
			}
		}
	}
}
