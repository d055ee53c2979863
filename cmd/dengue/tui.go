package main

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/dengue-data-service/internal/adapter/tui"
)

var tuiLogFile string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse, search, and edit records in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// The terminal belongs to the UI; logs go to a file or nowhere.
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		if tuiLogFile != "" {
			f, err := tea.LogToFile(tuiLogFile, "dengue")
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			log = slog.New(slog.NewTextHandler(f, nil))
		}

		ctx := cmd.Context()
		e, err := newEnv(ctx, log, false)
		if err != nil {
			return err
		}
		defer e.Close()

		_, err = tea.NewProgram(tui.New(ctx, e.pipeline), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "", "write logs to this file while the UI runs")
	rootCmd.AddCommand(tuiCmd)
}
