package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/orchestrator"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run [raw-dir]",
		Short: "Segment, score and pair every transcript into a new run directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			raw := cfg.Paths.Raw
			if len(args) == 1 {
				raw = args[0]
			}

			var opts []orchestrator.Option
			st, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
				opts = append(opts, orchestrator.WithSink(st))
			}

			res, err := ctx.pipeline(cfg, opts...).Run(cmd.Context(), raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %d calls, %d utterances, %d pairs\n",
				res.Manifest.RunID, len(res.Manifest.Calls), res.Manifest.Utterances, res.Manifest.Pairs)
			fmt.Fprintln(out, "Wrote:")
			for _, f := range res.Manifest.Files {
				fmt.Fprintf(out, "  %s\n", filepath.Join(res.Dir, f))
			}
			return nil
		},
	}
}

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "segment [raw-dir]",
		Short: "Split transcripts into utterances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			raw := cfg.Paths.Raw
			if len(args) == 1 {
				raw = args[0]
			}
			if outPath == "" {
				outPath = filepath.Join(cfg.Paths.Interim, orchestrator.UtterancesFile)
			}

			srcs, err := transcript.Discover(raw)
			if err != nil {
				return err
			}
			utts, calls, err := ctx.pipeline(cfg).Segment(cmd.Context(), srcs)
			if err != nil {
				return err
			}
			if err := orchestrator.WriteJSONL(outPath, utts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d utterances from %d calls to %s\n", len(utts), len(calls), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output JSONL path (default <interim>/utterances.jsonl)")
	return cmd
}

func parseSections(vals []string) ([]transcript.Section, error) {
	var out []transcript.Section
	for _, v := range vals {
		s := transcript.Section(strings.ToLower(strings.TrimSpace(v)))
		switch s {
		case transcript.SectionPrepared, transcript.SectionQA:
			out = append(out, s)
		default:
			return nil, fmt.Errorf("unknown section %q (want prepared or qa)", v)
		}
	}
	return out, nil
}

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var (
		inPath    string
		outPath   string
		limit     int
		sections  []string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score segmented utterances for sentiment and lexical features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			secs, err := parseSections(sections)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			if cmd.Flags().Changed("batch-size") {
				if batchSize <= 0 {
					return fmt.Errorf("--batch-size must be positive")
				}
				cfg.Sentiment.BatchSize = batchSize
			}
			if inPath == "" {
				inPath = filepath.Join(cfg.Paths.Interim, orchestrator.UtterancesFile)
			}
			if outPath == "" {
				outPath = filepath.Join(cfg.Paths.Processed, orchestrator.ScoredFile)
			}

			utts, err := orchestrator.ReadJSONL[transcript.Utterance](inPath)
			if err != nil {
				return err
			}
			scored, err := ctx.pipeline(cfg).Score(cmd.Context(), utts, orchestrator.Filter{Sections: secs, Limit: limit})
			if err != nil {
				return err
			}
			if len(scored) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to score (empty input after filters).")
				return nil
			}
			if err := orchestrator.WriteJSONL(outPath, scored); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d scored utterances to %s\n", len(scored), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "Input utterances JSONL (default <interim>/utterances.jsonl)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output JSONL path (default <processed>/utterances_scored.jsonl)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Score only the first N utterances")
	cmd.Flags().StringSliceVar(&sections, "sections", nil, "Sections to include (prepared, qa)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Chunk batch size sent to the sentiment service")
	return cmd
}

func newPairCommand(ctx *commandContext) *cobra.Command {
	var (
		inPath  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Pair analyst questions with their first answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if inPath == "" {
				inPath = filepath.Join(cfg.Paths.Processed, orchestrator.ScoredFile)
			}
			if outPath == "" {
				outPath = filepath.Join(cfg.Paths.Processed, orchestrator.PairsFile)
			}

			scored, err := orchestrator.ReadJSONL[features.ScoredUtterance](inPath)
			if err != nil {
				return err
			}
			pairs := ctx.pipeline(cfg).Pair(cmd.Context(), scored)
			if err := orchestrator.WriteJSONL(outPath, pairs); err != nil {
				return err
			}
			csvPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".csv"
			if err := orchestrator.WritePairsCSV(csvPath, pairs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pairs to %s and %s\n", len(pairs), outPath, csvPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "Input scored JSONL (default <processed>/utterances_scored.jsonl)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output JSONL path (default <processed>/qa_pairs.jsonl)")
	return cmd
}
