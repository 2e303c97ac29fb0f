package main

import (
	"encoding/json"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/config"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/fetcher"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <org_id>",
		Short: "Fetch one organization's donation progress and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := fetcher.New(cfg.FetcherConfig())
			if err != nil {
				return err
			}

			body, sourceURL, err := client.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(donation.NewSnapshot(body, sourceURL, time.Now()))
		},
	}
}
