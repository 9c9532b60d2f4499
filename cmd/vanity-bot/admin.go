package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/models"
	"github.com/noah-isme/vanity-bot/internal/service"
	"github.com/noah-isme/vanity-bot/pkg/export"
)

const cliActor = "cli"

var (
	tokenOperator string
	tokenRole     string
	tokenTTL      time.Duration
	ledgerFormat  string
	resetServer   string
	resetToken    string

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect or change a community's configuration",
	}
	configShowCmd = &cobra.Command{
		Use:   "show <community-id>",
		Short: "Print a community's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) (interface{}, error) {
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				return a.configs.Get(ctx, args[0])
			})
		},
	}
	configRoleCmd = &cobra.Command{
		Use:   "set-role <community-id> <role-id>",
		Short: "Set the role granted to members repping the tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) (interface{}, error) {
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				return a.configs.SetRole(ctx, args[0], args[1], cliActor)
			})
		},
	}
	configChannelCmd = &cobra.Command{
		Use:   "set-channel <community-id> <channel-id>",
		Short: "Set the announcement channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) (interface{}, error) {
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				return a.configs.SetChannel(ctx, args[0], args[1], cliActor)
			})
		},
	}
	configMessageCmd = &cobra.Command{
		Use:   "set-message <community-id> <text>",
		Short: "Set the announcement body, {nl} separates lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) (interface{}, error) {
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				return a.configs.SetAnnounceText(ctx, args[0], args[1], cliActor)
			})
		},
	}

	ledgerCmd = &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or reset who was already announced",
	}
	ledgerListCmd = &cobra.Command{
		Use:   "list <community-id>",
		Short: "List announced members of a community",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ledgerFormat == "csv" {
				a, err := newApp(cmd.Context(), cfg, logr)
				if err != nil {
					return err
				}
				defer a.Close() //nolint:errcheck
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				entries, err := a.ledger.List(ctx, args[0])
				if err != nil {
					return err
				}
				return export.WriteLedgerCSV(cmd.OutOrStdout(), entries)
			}
			return withApp(cmd, func(a *app) (interface{}, error) {
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				return a.ledger.List(ctx, args[0])
			})
		},
	}
	ledgerResetCmd = &cobra.Command{
		Use:   "reset <community-id>",
		Short: "Forget every announcement of a community",
		Long: `Forget every announcement of a community.

With --server the reset goes through a running server's admin API and applies
immediately. Without it the store is changed directly; a running server picks
the change up within LEDGER_REFRESH. The badger store cannot be opened while a
server holds it, so use --server there.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if resetServer != "" {
				if resetToken == "" {
					return fmt.Errorf("--token is required with --server")
				}
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				out, err := remoteLedgerReset(ctx, http.DefaultClient, resetServer, resetToken, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			return withApp(cmd, func(a *app) (interface{}, error) {
				ctx, cancel := withTimeout(cmd.Context())
				defer cancel()
				removed, err := a.ledger.Reset(ctx, args[0])
				if err == nil {
					logr.Info("ledger reset in store, running servers reload it within the refresh interval",
						zap.String("community_id", args[0]),
						zap.Duration("ledger_refresh", cfg.Vanity.LedgerRefresh))
				}
				return map[string]interface{}{"community_id": args[0], "removed": removed}, err
			})
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := service.NewAuthService(nil, logr, service.AuthConfig{
				Secret: cfg.JWT.Secret,
				Expiry: cfg.JWT.Expiration,
				Issuer: "vanity-bot",
			})
			token, expiresAt, err := auth.GenerateToken(service.TokenRequest{
				Operator: tokenOperator,
				Role:     models.OperatorRole(tokenRole),
				TTL:      tokenTTL,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"token":      token,
				"role":       tokenRole,
				"expires_at": expiresAt,
			})
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd, configRoleCmd, configChannelCmd, configMessageCmd)
	ledgerCmd.AddCommand(ledgerListCmd, ledgerResetCmd)
	ledgerListCmd.Flags().StringVar(&ledgerFormat, "format", "json", "json or csv")
	ledgerResetCmd.Flags().StringVar(&resetServer, "server", "", "base URL of a running server, e.g. http://localhost:3000")
	ledgerResetCmd.Flags().StringVar(&resetToken, "token", "", "ADMIN token for --server")

	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "name recorded in the token and in config changes")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.OperatorAdmin), "ADMIN or INGEST")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime, defaults to JWT_EXPIRATION")
	_ = tokenCmd.MarkFlagRequired("operator")
}

func withApp(cmd *cobra.Command, run func(a *app) (interface{}, error)) error {
	a, err := newApp(cmd.Context(), cfg, logr)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	out, err := run(a)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
