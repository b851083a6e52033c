package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/orchestrator"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print summary statistics of scored utterances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if inPath == "" {
				inPath = filepath.Join(cfg.Paths.Processed, orchestrator.ScoredFile)
			}
			scored, err := orchestrator.ReadJSONL[features.ScoredUtterance](inPath)
			if err != nil {
				return err
			}
			summary := orchestrator.Summarize(scored)
			if len(summary) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scored utterances.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
			return nil
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "Scored utterances JSONL (default <processed>/utterances_scored.jsonl)")
	return cmd
}

// renderSummary lays out one row per section and column. Statistics stay
// float64 in the rows and are rounded by the column transformer.
func renderSummary(rows []orchestrator.SummaryRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Section", "Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.Section, r.Column, r.Count, r.Mean, r.Std, r.Min, r.Q25, r.Median, r.Q75, r.Max})
	}

	configs := []table.ColumnConfig{
		{Name: "Section", AutoMerge: true},
		{Name: "Count", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	}
	for _, name := range []string{"Mean", "Std", "Min", "25%", "50%", "75%", "Max"} {
		configs = append(configs, table.ColumnConfig{
			Name:        name,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
			Transformer: fixed4,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func fixed4(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 4, 64)
	}
	return fmt.Sprint(v)
}
