// Command donation-proxy serves HCB donation progress as JSON.
package main

import (
	"os"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/config"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var (
		envFile string
		cfg     config.Config
	)

	root := &cobra.Command{
		Use:          "donation-proxy",
		Short:        "Cached JSON proxy for HCB donation progress",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(envFile)
			if err != nil {
				return err
			}
			cfg = loaded

			lc := cfg.LoggingConfig()
			lc.Output = cmd.ErrOrStderr()
			logging.Setup(lc)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	serve := newServeCmd(&cfg)
	root.AddCommand(serve, newSnapshotCmd(&cfg))

	// Bare invocation behaves like "serve".
	root.Flags().AddFlagSet(serve.Flags())
	root.RunE = serve.RunE

	return root
}
