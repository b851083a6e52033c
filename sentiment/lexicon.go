package sentiment

import (
	"context"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Small finance-flavoured word lists in the spirit of Loughran-McDonald.
var (
	positiveWords = wordSet(
		"achieve", "achieved", "benefit", "benefited", "better",
		"exceeded", "excellent", "favorable", "gain", "gains", "good", "great",
		"growth", "improve", "improved", "improvement", "improving", "momentum",
		"outperform", "pleased", "positive", "profitable", "record", "robust",
		"strength", "strong", "stronger", "success", "successful",
	)
	negativeWords = wordSet(
		"adverse", "challenge", "challenges", "challenging", "decline", "declined",
		"declines", "decrease", "decreased", "deteriorate", "difficult", "headwind",
		"headwinds", "impairment", "litigation", "loss", "losses", "miss", "missed",
		"negative", "pressure", "restructuring", "shortfall", "slowdown", "weak",
		"weaker", "weakness", "worse",
	)
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Lexicon scores text by counting positive and negative words. It needs no
// model service and is used when no FinBERT endpoint is configured.
type Lexicon struct{}

func NewLexicon() *Lexicon { return &Lexicon{} }

// ScoreText returns neg = negatives/n, pos = positives/n and neu = the rest,
// where n is the word count. Text with no words is fully neutral.
func (l *Lexicon) ScoreText(ctx context.Context, text string) (Distribution, float64, error) {
	if err := ctx.Err(); err != nil {
		return Distribution{}, 0, err
	}
	if Blank(text) {
		return Distribution{}, 0, nil
	}
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return Distribution{Neutral: 1}, 0, nil
	}
	var pos, neg int
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			pos++
		} else if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	n := float64(len(words))
	d := Distribution{Negative: float64(neg) / n, Positive: float64(pos) / n}
	d.Neutral = 1 - d.Negative - d.Positive
	return d, d.Polarity(), nil
}
