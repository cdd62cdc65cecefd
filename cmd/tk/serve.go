package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/amonks/tasks/chat"
	"github.com/amonks/tasks/internal/metrics"
	"github.com/amonks/tasks/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task API over HTTP",
	Long: `Serve the task API over HTTP until interrupted.

Routes live under /api; Prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr      string
	serveNoMetrics bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "Do not serve /metrics")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = app.cfg.Server.Addr
	}

	var m *metrics.Metrics
	if !serveNoMetrics {
		m = metrics.New()
		m.RegisterTaskGauges(app.svc, app.logger)
	}

	srv, err := server.New(server.Options{
		Service: app.svc,
		Bot:     chat.NewBot(app.svc, chat.BotOptions{Logger: app.logger}),
		Metrics: m,
		Logger:  app.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx, addr)
}
