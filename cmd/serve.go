package cmd

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
	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/credentials"
	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/highlight"
	"github.com/ziadkadry99/lexhover/internal/messaging"
	"github.com/ziadkadry99/lexhover/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the background definition service",
	Long: `Starts the HTTP service pages talk to: definition requests over
POST /api/definition and the /ws/definitions WebSocket, API key settings,
page highlighting, health and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := newBackend(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		srv := server.New(server.Config{
			Host:     cfg.Server.Host,
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
		}, b.db, b.registry, logger)

		r := srv.Router()
		messaging.RegisterRoutes(r, b.channel, logger)
		credentials.RegisterRoutes(r, b.keys)
		highlight.RegisterRoutes(r, b.glossary, cfg.Highlight.InjectStyles, logger)

		if cfg.Glossary.Watch && cfg.Glossary.Path != "" {
			go func() {
				if err := glossary.Watch(ctx, cfg.Glossary.Path, b.glossary, logger); err != nil {
					logger.Error("glossary watch stopped", zap.Error(err))
				}
			}()
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "lexhover %s listening on %s\n", Version, srv.ServerConfig().Addr())
		fmt.Fprintf(os.Stderr, "  Database: %s\n", b.db.Path())
		fmt.Fprintf(os.Stderr, "  Cache: %s\n", cfg.Cache.Backend)
		fmt.Fprintf(os.Stderr, "  Glossary terms: %d\n", b.glossary.Current().Len())

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "interface to bind (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
