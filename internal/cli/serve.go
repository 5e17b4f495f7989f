package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/config"
	"github.com/xtding233/ltv-backend/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC calculator services",
		Long: `Run the HTTP and gRPC calculator services.

Settings come from --config (or ./ltv.yaml when present) and LTV_* environment
variables; --policy-dir and --profile override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("policy-dir") {
				cfg.PolicyDir = a.policyDir
			}
			if cmd.Flags().Changed("profile") {
				cfg.PolicyProfile = a.profile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog := config.SetupLogger(cfg.LogFile, config.ParseLevel(cfg.LogLevel))
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "config file (yaml, toml or json)")
	return cmd
}
