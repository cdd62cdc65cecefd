// Package main implements the tk CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/amonks/tasks/internal/config"
	"github.com/amonks/tasks/internal/logging"
	"github.com/amonks/tasks/task"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	err := rootCmd.Execute()
	closeApp()
	if err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "tk",
	Short:             "tk - a personal task manager",
	SilenceUsage:      true,
	PersistentPreRunE: openApp,
}

var (
	rootBackend  string
	rootStore    string
	rootLogLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootBackend, "backend", "", "Storage backend (memory, file, sqlite)")
	rootCmd.PersistentFlags().StringVar(&rootStore, "store", "", "Task file or database path")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// app holds what every command needs once the root pre-run has finished.
var app struct {
	cfg    *config.Config
	logger *zap.Logger
	repo   task.Repository
	svc    *task.Service
}

func openApp(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if rootBackend != "" {
		cfg.Storage.Backend = rootBackend
	}
	if rootStore != "" {
		cfg.Storage.Path = rootStore
	}
	if rootLogLevel != "" {
		cfg.Log.Level = rootLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, logging.Options{})
	if err != nil {
		return err
	}

	repo, err := task.OpenRepository(task.OpenOptions{
		Backend: task.Backend(cfg.Storage.Backend),
		Path:    cfg.Storage.Path,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	ids, err := task.NewSeededCounter(repo)
	if err != nil {
		_ = task.CloseRepository(repo)
		return err
	}

	app.cfg = cfg
	app.logger = logger
	app.repo = repo
	app.svc = task.NewService(repo, task.ServiceOptions{IDs: ids, Logger: logger})
	logger.Debug("store opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", cfg.Storage.Path))
	return nil
}

func closeApp() {
	if app.repo != nil {
		if err := task.CloseRepository(app.repo); err != nil {
			app.logger.Warn("close store", zap.Error(err))
		}
	}
	if app.logger != nil {
		_ = app.logger.Sync()
	}
}
