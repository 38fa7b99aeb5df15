package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/marketing"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read marketing events from Klaviyo",
	}

	var (
		metric  string
		timeout time.Duration
	)
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recent events of a metric as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() {
				_ = log.Sync()
			}()

			adapter := marketing.NewKlaviyoAdapter(&marketing.KlaviyoConfig{
				PrivateKey: cfg.Klaviyo.PrivateKey,
				Revision:   cfg.Klaviyo.Revision,
				BaseURL:    cfg.Klaviyo.BaseURL,
				Timeout:    cfg.Klaviyo.Timeout,
			}, marketing.WithKlaviyoLogger(log))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			events, err := adapter.RecentEvents(ctx, metric)
			if err != nil {
				return err
			}
			return writeJSON(cmd, events)
		},
	}
	recent.Flags().StringVar(&metric, "metric", integration.MetricGenerated3DModel, "Klaviyo metric name")
	recent.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	cmd.AddCommand(recent)
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
