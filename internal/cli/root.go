// Package cli defines the authgate command tree.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/VJYGOUR/auth-system/internal/config"
	"github.com/VJYGOUR/auth-system/internal/logger"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authgate",
		Short: "Credential and session service",
		Long: `authgate registers users, verifies passwords and issues signed
session tokens carried in an HttpOnly cookie.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewShellCmd())
	return cmd
}

// loadConfig reads configuration for commands that registered the config
// flags, and initialises logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cmd.Flags(), configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LogLevel, cfg.IsDevelopment()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withConfigFlags(cmd *cobra.Command) *cobra.Command {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	config.RegisterFlags(fs)
	cmd.Flags().AddFlagSet(fs)
	return cmd
}
