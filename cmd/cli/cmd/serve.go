// Package cmd - serve command
package cmd

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"catalog-sync/api"
	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog sync HTTP API server",
	Long: `Start the HTTP API server, exposing the catalog operations under /api.

Examples:
  catalog-sync serve
  catalog-sync serve --addr :9090 --config config.hcl`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	engine, store, err := newEngine()
	if err != nil {
		return err
	}
	defer logging.Sync()

	cfg := config.Get()
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	apiServer := api.NewServer(version, store, engine)
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	logging.Logger.Info("catalog-sync server listening",
		zap.String("addr", addr),
		zap.String("version", version))
	return srv.ListenAndServe()
}
