package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"risklo/internal/decision"
	"risklo/internal/domain"
	"risklo/internal/observability"
	"risklo/internal/orchestrator"
	"risklo/internal/reporting"
)

type analyzeOptions struct {
	sheet             string
	accountSize       float64
	contracts         int
	contractType      string
	maxDrawdown       float64
	startOfDayProfit  float64
	safetyNet         float64
	profitSincePayout float64
	format            string
}

// config builds the engine input. Unset optional flags stay absent.
func (o analyzeOptions) config(cmd *cobra.Command) (domain.PositionConfig, error) {
	ct, err := domain.ParseContractType(o.contractType)
	if err != nil {
		return domain.PositionConfig{}, err
	}
	cfg := domain.PositionConfig{
		SheetName:    o.sheet,
		AccountSize:  o.accountSize,
		Contracts:    o.contracts,
		ContractType: ct,
	}
	optional := func(flag string, v float64) domain.Option[float64] {
		if cmd.Flags().Changed(flag) {
			return domain.Some(v)
		}
		return domain.None[float64]()
	}
	cfg.MaxDrawdown = optional("max-drawdown", o.maxDrawdown)
	cfg.StartOfDayProfit = optional("start-of-day-profit", o.startOfDayProfit)
	cfg.SafetyNet = optional("safety-net", o.safetyNet)
	cfg.ProfitSinceLastPayout = optional("profit-since-payout", o.profitSincePayout)
	return cfg, nil
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one strategy sheet for a position",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			posCfg, err := opts.config(cmd)
			if err != nil {
				return err
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

			orch := orchestrator.New(orchestrator.Options{
				Provider: provider,
				Store:    store,
				Metrics:  m,
				Logger:   logger,
			})
			rec, err := orch.Analyze(ctx, posCfg)
			if err != nil {
				var noData *domain.NoTradingDataError
				if errors.As(err, &noData) {
					out := cmd.ErrOrStderr()
					for _, row := range noData.SampleRows {
						fmt.Fprintf(out, "row %d (%d cells): %v\n", row.RowIndex, row.Length, row.Columns)
					}
				}
				return err
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(opts.format) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			case "markdown", "md":
				_, err := fmt.Fprint(out, reporting.RenderAnalysis(rec))
				return err
			case "checklist":
				checklist := decision.NewEvaluator().Evaluate(rec.SheetName, rec.Metrics)
				_, err := fmt.Fprint(out, decision.RenderMarkdown(checklist))
				return err
			default:
				return fmt.Errorf("unknown format %q (json, markdown or checklist)", opts.format)
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.sheet, "sheet", "", "strategy sheet name")
	f.Float64Var(&opts.accountSize, "account-size", 0, "account balance in dollars")
	f.IntVar(&opts.contracts, "contracts", 1, "number of contracts")
	f.StringVar(&opts.contractType, "contract-type", "NQ", "NQ or MNQ")
	f.Float64Var(&opts.maxDrawdown, "max-drawdown", 0, "trailing drawdown limit")
	f.Float64Var(&opts.startOfDayProfit, "start-of-day-profit", 0, "profit above the starting balance at the open")
	f.Float64Var(&opts.safetyNet, "safety-net", 0, "Apex safety net")
	f.Float64Var(&opts.profitSincePayout, "profit-since-payout", 0, "profit since the last payout")
	f.StringVar(&opts.format, "format", "json", "output format: json, markdown or checklist")
	_ = cmd.MarkFlagRequired("sheet")
	_ = cmd.MarkFlagRequired("account-size")
	return cmd
}
