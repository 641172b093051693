package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var opts runOptions

	rootCmd := &cobra.Command{
		Use:   "duosync",
		Short: "Synchronize Duolingo daily progress into the local history",
		Long: `duosync fetches the recent daily XP summaries of a Duolingo account,
reconciles them with the persisted history and records the run.

Credentials come from DUOLINGO_USERNAME and DUOLINGO_JWT (preferred) or
DUOLINGO_PASSWORD, read from the environment, a .env file or --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(os.Stdout, "[JDV] ", 0)
			return run(cmd.Context(), logger, opts)
		},
	}

	rootCmd.Flags().StringVar(&opts.ConfigFile, "config", "", "optional YAML config file")
	rootCmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file merged beneath the environment")
	rootCmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "run against an in-memory copy of the store and write nothing back")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
