package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"registrar/internal/adapters/httpapi"
	"registrar/internal/adapters/reports"
	"registrar/internal/blob"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalogue over HTTP",
		Long: `Serve the JSON API under /api/v1 and Prometheus metrics at /metrics
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			store, err := blob.Open(ctx, a.cfg.Blob)
			if err != nil {
				return err
			}
			exporter := reports.NewExporter(a.svc, store, reports.WithLogger(a.logger))
			api := httpapi.New(a.svc,
				httpapi.WithExporter(exporter),
				httpapi.WithGatherer(a.metrics.Registry()),
				httpapi.WithLogger(a.logger),
			)
			srv := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				a.logger.Info("shutting down http server")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		}),
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}
