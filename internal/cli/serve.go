package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/apexboard/linear-integration/internal/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the integration REST API server",
	Long: `Start the HTTP server exposing integration operations:

  POST /api/v1/integrations                     trigger a project integration
  GET  /api/v1/provider/projects                list provider projects
  GET  /api/v1/provider/projects/{id}/members   list project members
  GET  /api/v1/health                           health check
  GET  /metrics                                 Prometheus metrics`,
	Example: `  # Serve on the configured address
  linear-sync serve

  # Serve on an explicit address
  linear-sync serve --addr=:9090`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := setupComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	apiConfig := api.DefaultConfig()
	apiConfig.Addr = c.config.ListenAddr
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		apiConfig.Addr = addr
	}

	server := api.NewServer(apiConfig, api.BuildInfo{
		Version: buildInfo.Version,
		Commit:  buildInfo.Commit,
		Date:    buildInfo.Date,
	}, c.service, c.metrics, c.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		fmt.Printf("\n🛑 Received %s, shutting down...\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Stop(ctx)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides LISTEN_ADDR)")
}
