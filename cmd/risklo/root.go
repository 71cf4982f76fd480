package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"risklo/internal/config"
	"risklo/internal/logging"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "risklo",
		Short: "Prop-firm strategy risk engine",
		Long: `risklo estimates how likely a futures strategy is to blow a funded account.

It reads daily P&L from strategy sheets, scales it to a position size and
evaluates trailing drawdown, Apex MAE and windfall (30% consistency) rules.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable console logs")

	cmd.AddCommand(
		newServeCmd(opts),
		newAnalyzeCmd(opts),
		newImportCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads config and applies persistent flag overrides. Logs go to errOut
// so command output on stdout stays clean.
func (o *rootOptions) load(cmd *cobra.Command, errOut io.Writer) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = o.pretty
	}
	return cfg, logging.New(cfg.Log, errOut), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "risklo version %s\n", version)
		},
	}
}
