// Command dengue serves, browses, and bulk-loads dengue case records.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/dengue-data-service/internal/config"
	"github.com/couchcryptid/dengue-data-service/internal/observability"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	// Registered once per process; commands may run repeatedly in tests.
	metrics = sync.OnceValue(observability.NewMetrics)
)

var rootCmd = &cobra.Command{
	Use:   "dengue",
	Short: "Dengue case records service",
	Long: "Manages dengue case records: a searchable paginated listing, per-region " +
		"severity classification for choropleth maps, and bulk import.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
