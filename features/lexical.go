package features

import (
	"regexp"
	"strings"
)

var (
	tokenRe   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	numericRe = regexp.MustCompile(`\$?\d[\d,]*(\.\d+)?%?`)
)

// uncertaintyTerms is a short hedging lexicon taken from the Loughran-McDonald
// uncertainty list plus guidance vocabulary.
var uncertaintyTerms = map[string]struct{}{
	"uncertain": {}, "uncertainty": {}, "risk": {}, "risks": {}, "volatility": {},
	"may": {}, "might": {}, "could": {}, "approximately": {}, "around": {},
	"expect": {}, "guidance": {},
}

// Tokenize returns lowercase word tokens.
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

func tokenCount(tokens []string) int {
	return max(len(tokens), 1)
}

// UncertaintyRate is the share of tokens that are uncertainty terms.
func UncertaintyRate(tokens []string) float64 {
	var n int
	for _, tok := range tokens {
		if _, ok := uncertaintyTerms[tok]; ok {
			n++
		}
	}
	return float64(n) / float64(tokenCount(tokens))
}

// NumericDensity is the number of numeric expressions ("$1,200.50", "5%")
// in text divided by its token count.
func NumericDensity(text string, tokens []string) float64 {
	return float64(len(numericRe.FindAllString(text, -1))) / float64(tokenCount(tokens))
}
