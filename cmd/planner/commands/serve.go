// ABOUTME: Serve command starts the HTTP API
// ABOUTME: Accepts uploads on /migrate and /migrate/json and returns Plan.md
package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/migration-planner/internal/server"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Endpoints:
  GET  /              service info
  GET  /health        health check
  POST /migrate       multipart upload (field "files"), returns Plan.md
  POST /migrate/json  {"files":[{"filename","content"}]}, returns JSON

Listens on APP_HOST:APP_PORT (default 0.0.0.0:8000) unless --addr is set.`,
		RunE: runServe,
		Example: `  # Start on the configured address
  planner serve

  # Upload files
  curl -F files=@OrderFlow.html -o Plan.md http://localhost:8000/migrate`,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides APP_HOST and APP_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, pipeline, err := setup()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(pipeline, versionInfo.Version, logger.WithPrefix("http"))
	return srv.ListenAndServe(ctx, addr)
}
