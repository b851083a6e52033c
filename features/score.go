// Package features turns segmented utterances into analysable records:
// per-utterance sentiment and lexical features, then question/answer pairs.
package features

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/sentiment"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

// ScoredUtterance is an utterance with its sentiment and lexical features.
type ScoredUtterance struct {
	transcript.Utterance
	Neg             float64 `json:"neg"`
	Neu             float64 `json:"neu"`
	Pos             float64 `json:"pos"`
	Polarity        float64 `json:"polarity"`
	UncertaintyRate float64 `json:"uncertainty_rate"`
	NumericDensity  float64 `json:"numeric_density"`
	LenTokens       int     `json:"len_tokens"`
}

type ScoreOptions struct {
	// Workers bounds concurrent scorer calls. Values below 1 mean sequential.
	Workers int
	// OnScored, if set, is called after each utterance is scored. It may be
	// called from several goroutines.
	OnScored func(ScoredUtterance)
}

// ScoreOne scores a single utterance.
func ScoreOne(ctx context.Context, u transcript.Utterance, s sentiment.Scorer) (ScoredUtterance, error) {
	dist, polarity, err := s.ScoreText(ctx, u.Text)
	if err != nil {
		return ScoredUtterance{}, fmt.Errorf("score %s#%d: %w", u.CallID, u.Order, err)
	}
	tokens := Tokenize(u.Text)
	return ScoredUtterance{
		Utterance:       u,
		Neg:             dist.Negative,
		Neu:             dist.Neutral,
		Pos:             dist.Positive,
		Polarity:        polarity,
		UncertaintyRate: UncertaintyRate(tokens),
		NumericDensity:  NumericDensity(u.Text, tokens),
		LenTokens:       tokenCount(tokens),
	}, nil
}

// Score scores every utterance and returns results in input order. Work is
// spread over opts.Workers goroutines; the first scorer error cancels the
// remaining calls and is returned.
func Score(ctx context.Context, utts []transcript.Utterance, s sentiment.Scorer, opts ScoreOptions) ([]ScoredUtterance, error) {
	out := make([]ScoredUtterance, len(utts))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(opts.Workers, 1))

	for i := range utts {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			su, err := ScoreOne(egCtx, utts[i], s)
			if err != nil {
				return err
			}
			out[i] = su
			if opts.OnScored != nil {
				opts.OnScored(su)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
