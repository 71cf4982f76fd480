package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"risklo/internal/domain"
	"risklo/internal/ninjatrader"
	"risklo/internal/observability"
	"risklo/internal/orchestrator"
	"risklo/internal/reporting"
)

type importOptions struct {
	accounts   string
	strategies string
	mode       string
	format     string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Analyze every account in a NinjaTrader export and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			mode := domain.RiskMode(opts.mode)
			if mode != domain.RiskModeDrawdown && mode != domain.RiskModeApexMae {
				return fmt.Errorf("unknown mode %q (risk or apexMae)", opts.mode)
			}

			accounts, err := parseFile(opts.accounts, ninjatrader.ParseAccounts)
			if err != nil {
				return fmt.Errorf("accounts: %w", err)
			}
			strategies, err := parseFile(opts.strategies, ninjatrader.ParseStrategies)
			if err != nil {
				return fmt.Errorf("strategies: %w", err)
			}

			ctx := cmd.Context()
			m := observability.NewMetrics(observability.DefaultNamespace)
			store, closeStore, err := openStore(ctx, cfg.Storage, m)
			if err != nil {
				return err
			}
			defer closeStore()
			provider, closeProvider, err := newProvider(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeProvider()

			names, err := provider.SheetNames(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("sheet names unavailable, using exported strategy names")
			}
			rows := ninjatrader.Match(accounts, strategies, names)

			orch := orchestrator.New(orchestrator.Options{
				Provider:    provider,
				Store:       store,
				Metrics:     m,
				Concurrency: cfg.Bulk.Concurrency,
				Logger:      logger,
			})
			res, err := orch.Run(ctx, rows, mode)
			if err != nil {
				return err
			}

			summary := reporting.Summarize(res.Results, res.Mode, time.Now())
			out := cmd.OutOrStdout()
			switch strings.ToLower(opts.format) {
			case "markdown", "md":
				_, err = fmt.Fprint(out, reporting.RenderMarkdown(summary))
			case "csv":
				var s string
				if s, err = reporting.RenderCSV(summary); err == nil {
					_, err = fmt.Fprint(out, s)
				}
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				err = enc.Encode(res)
			default:
				err = fmt.Errorf("unknown format %q (markdown, csv or json)", opts.format)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.accounts, "accounts", "", "NinjaTrader accounts CSV export")
	f.StringVar(&opts.strategies, "strategies", "", "NinjaTrader strategies CSV export")
	f.StringVar(&opts.mode, "mode", string(domain.RiskModeDrawdown), "risk mode: risk or apexMae")
	f.StringVar(&opts.format, "format", "markdown", "output format: markdown, csv or json")
	_ = cmd.MarkFlagRequired("accounts")
	_ = cmd.MarkFlagRequired("strategies")
	return cmd
}

func parseFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	return parse(f)
}
