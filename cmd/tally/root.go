package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tally/internal/cli"
	"github.com/aretw0/tally/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Tally is a scientific calculator with persistent sessions",
	Long: `Tally evaluates arithmetic expressions written in everyday notation
(6x7, 2^10, 5!, |-3|, π) with exact rational arithmetic where possible.

Run without a subcommand to start the interactive calculator.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	pf.String("env-file", "", "Env file (default ./"+config.DefaultEnvFile+" when present)")
	pf.StringP("session", "s", "", "Session ID")
	pf.String("store", "", "Session store: memory, file or redis")
	pf.String("store-path", "", "Directory of the file store")
	pf.Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the configuration and applies command-line overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(config.Options{File: file, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("session"); v != "" {
		cfg.Session.ID = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Kind = v
	}
	if v, _ := cmd.Flags().GetString("store-path"); v != "" {
		cfg.Store.Path = v
	}
	return cfg, cfg.Validate()
}

// withRuntime builds the runtime for cmd, runs fn and releases the runtime.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *cli.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg.Log, debug)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := cli.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("runtime close failed", "err", err)
		}
	}()
	return fn(ctx, rt)
}
