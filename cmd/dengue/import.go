package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/dengue-data-service/internal/config"
	"github.com/couchcryptid/dengue-data-service/internal/importer"
)

var (
	importFile   string
	validateFile string
)

var (
	// errRowsRejected makes validate exit non-zero when any row fails.
	errRowsRejected = errors.New("rows rejected")

	// errEphemeralStore refuses imports that would vanish when the process exits.
	errEphemeralStore = errors.New("import needs a persistent store: set STORE_DRIVER to sqlite or postgres")
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records from a CSV, XLSX, or JSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.StoreDriver == config.DriverMemory {
			return errEphemeralStore
		}

		rows, err := importer.ReadFile(importFile)
		if err != nil {
			return err
		}

		e, err := newEnv(cmd.Context(), logger, false)
		if err != nil {
			return err
		}
		defer e.Close()

		rep, err := importer.New(e.pipeline, logger, metrics()).Import(cmd.Context(), rows)
		printReport(cmd.OutOrStdout(), rep)
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an import file without writing anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rows, err := importer.ReadFile(validateFile)
		if err != nil {
			return err
		}
		rep := importer.Validate(rows)
		printReport(cmd.OutOrStdout(), rep)
		if len(rep.Rejected) > 0 {
			return fmt.Errorf("%d of %d: %w", len(rep.Rejected), len(rows), errRowsRejected)
		}
		return nil
	},
}

func printReport(w io.Writer, rep importer.Report) {
	if rep.Rejected == nil {
		rep.Rejected = []importer.RowError{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(rep)
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the import file (required)")
	_ = importCmd.MarkFlagRequired("file")
	validateCmd.Flags().StringVar(&validateFile, "file", "", "path to the import file (required)")
	_ = validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd, validateCmd)
}
