// Package sentiment defines the text sentiment capability consumed by the
// scoring stage and an offline lexicon implementation of it.
//
// A Scorer maps text to a probability distribution over negative, neutral
// and positive plus a polarity scalar (positive minus negative). Blank text
// must score as the zero distribution with zero polarity and no error.
// Providers may chunk long text internally; callers only see one result per
// input.
package sentiment

import (
	"context"
	"strings"
)

// Label names used in provider payloads.
const (
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
	LabelPositive = "positive"
)

// Distribution is a probability distribution over the three sentiment labels.
type Distribution struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

func (d Distribution) Sum() float64 { return d.Negative + d.Neutral + d.Positive }

// Polarity is positive minus negative, in [-1, 1].
func (d Distribution) Polarity() float64 { return d.Positive - d.Negative }

// Scorer is implemented by anything that can score a piece of text.
type Scorer interface {
	ScoreText(ctx context.Context, text string) (Distribution, float64, error)
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(ctx context.Context, text string) (Distribution, float64, error)

func (f ScorerFunc) ScoreText(ctx context.Context, text string) (Distribution, float64, error) {
	return f(ctx, text)
}

// Blank reports whether text has nothing to score.
func Blank(text string) bool { return strings.TrimSpace(text) == "" }
