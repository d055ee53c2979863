package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	kafkaadapter "github.com/couchcryptid/dengue-data-service/internal/adapter/kafka"
)

var watchGroup string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail the record change feed as JSON lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}

		r := kafkaadapter.NewReader(cfg, watchGroup, logger)
		defer r.Close() //nolint:errcheck

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		for {
			event, err := r.Next(cmd.Context())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			if err := enc.Encode(event); err != nil {
				return err
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchGroup, "group", "", "consumer group id; empty reads from the latest offset")
	rootCmd.AddCommand(watchCmd)
}
