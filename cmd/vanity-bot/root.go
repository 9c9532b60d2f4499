package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/pkg/config"
	"github.com/noah-isme/vanity-bot/pkg/logger"
)

var (
	cfg  *config.Config
	logr *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "vanity-bot",
		Short: "Grants a role to members repping the vanity tag and announces it once",
		Long: `vanity-bot watches member statuses for the configured vanity tag, keeps the
reward role in sync and announces each member once per community.

Configuration is read from .env and the environment (see VANITY_TAG, STORE_DRIVER,
DISCORD_TOKEN). With the badger store only one process may open the data directory,
so stop the server before using the config and ledger commands.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			l, err := logger.New(loaded)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cfg, logr = loaded, l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logr != nil {
				_ = logr.Sync()
			}
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, configCmd, ledgerCmd, tokenCmd)
}
