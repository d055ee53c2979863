package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/dengue-data-service/internal/adapter/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the record API with health, readiness, and metrics endpoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := newEnv(ctx, logger, true)
		if err != nil {
			return err
		}
		defer e.Close()

		var choropleth httpadapter.ChoroplethSource
		if e.boundaries != nil {
			choropleth = e.boundaries
		}
		srv := httpadapter.NewServer(cfg.HTTPAddr, e.pipeline, choropleth, logger)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			// Readiness stays false until a refresh succeeds; POST /api/refresh retries.
			if err := e.pipeline.Refresh(gctx); err != nil {
				logger.Warn("initial refresh failed", "error", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http server shutdown: %w", err)
			}
			return nil
		})

		err = g.Wait()
		logger.Info("shutdown complete")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
